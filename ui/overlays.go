package ui

import (
	"slices"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID names a toggleable layer.
type OverlayID string

const (
	OverlayRays      OverlayID = "rays"
	OverlayVision    OverlayID = "vision"
	OverlayQuadTree  OverlayID = "quad_tree"
	OverlayBest      OverlayID = "best"
	OverlayInspector OverlayID = "inspector"
	OverlayPerf      OverlayID = "perf"
	OverlayDensity   OverlayID = "density"
)

// OverlayDescriptor describes one overlay and how to toggle it.
type OverlayDescriptor struct {
	ID        OverlayID
	Name      string
	Key       int32 // 0 = no key
	KeyLabel  string
	Category  string
	Exclusive []OverlayID // switched off when this one turns on
}

// OverlayRegistry tracks which overlays are on.
type OverlayRegistry struct {
	order   []OverlayDescriptor
	index   map[OverlayID]int
	byKey   map[int32]OverlayID
	enabled map[OverlayID]bool
}

// NewOverlayRegistry returns the standard overlays with rays and the
// best-orb ring switched on.
func NewOverlayRegistry() *OverlayRegistry {
	r := &OverlayRegistry{
		index:   make(map[OverlayID]int),
		byKey:   make(map[int32]OverlayID),
		enabled: make(map[OverlayID]bool),
	}
	for _, d := range []OverlayDescriptor{
		{ID: OverlayRays, Name: "Rays", Key: rl.KeyR, KeyLabel: "R", Category: "perception", Exclusive: []OverlayID{OverlayVision}},
		{ID: OverlayVision, Name: "Vision Range", Key: rl.KeyV, KeyLabel: "V", Category: "perception", Exclusive: []OverlayID{OverlayRays}},
		{ID: OverlayBest, Name: "Best Orb", Key: rl.KeyB, KeyLabel: "B", Category: "visual"},
		{ID: OverlayDensity, Name: "Target Density", Key: rl.KeyG, KeyLabel: "G", Category: "visual"},
		{ID: OverlayInspector, Name: "Inspector", Key: rl.KeyI, KeyLabel: "I", Category: "visual"},
		{ID: OverlayQuadTree, Name: "Quad-tree", Key: rl.KeyQ, KeyLabel: "Q", Category: "debug"},
		{ID: OverlayPerf, Name: "Perf", Key: rl.KeyF3, KeyLabel: "F3", Category: "debug"},
	} {
		r.Register(d)
	}
	r.enabled[OverlayRays] = true
	r.enabled[OverlayBest] = true
	return r
}

// Register adds an overlay, switched off. Registering an existing ID
// replaces its descriptor.
func (r *OverlayRegistry) Register(d OverlayDescriptor) {
	if i, ok := r.index[d.ID]; ok {
		if old := r.order[i].Key; old != 0 {
			delete(r.byKey, old)
		}
		r.order[i] = d
	} else {
		r.index[d.ID] = len(r.order)
		r.order = append(r.order, d)
	}
	if d.Key != 0 {
		r.byKey[d.Key] = d.ID
	}
	r.enabled[d.ID] = false
}

// Toggle flips an overlay and returns its new state.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	r.SetEnabled(id, !r.enabled[id])
	return r.enabled[id]
}

// SetEnabled sets an overlay, turning off the ones it excludes. Unknown IDs
// are ignored.
func (r *OverlayRegistry) SetEnabled(id OverlayID, on bool) {
	i, ok := r.index[id]
	if !ok {
		return
	}
	r.enabled[id] = on
	if !on {
		return
	}
	for _, other := range r.order[i].Exclusive {
		r.enabled[other] = false
	}
}

// IsEnabled reports whether an overlay is on.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// ByCategory lists the overlays in a category in registration order.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var out []OverlayDescriptor
	for _, d := range r.order {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}

// Categories lists categories in the order they first appear.
func (r *OverlayRegistry) Categories() []string {
	var cats []string
	for _, d := range r.order {
		if !slices.Contains(cats, d.Category) {
			cats = append(cats, d.Category)
		}
	}
	return cats
}

// HandleKeyPress toggles the overlay bound to key. ok is false when no
// overlay uses the key.
func (r *OverlayRegistry) HandleKeyPress(key int32) (id OverlayID, on, ok bool) {
	id, ok = r.byKey[key]
	if !ok {
		return "", false, false
	}
	return id, r.Toggle(id), true
}

// Keys returns the bound keys in registration order.
func (r *OverlayRegistry) Keys() []int32 {
	keys := make([]int32, 0, len(r.byKey))
	for _, d := range r.order {
		if d.Key != 0 && r.byKey[d.Key] == d.ID {
			keys = append(keys, d.Key)
		}
	}
	return keys
}
