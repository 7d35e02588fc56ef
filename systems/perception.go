package systems

import (
	"math"

	"github.com/pthm-cable/orbs/components"
)

// Observer is the perceiving orb's own state at the start of the tick.
type Observer struct {
	ID          uint32
	X, Y        float32
	Radius      float32
	WallContact bool
}

// Perceiver turns an orb's surroundings into a fixed-length sensory vector.
// Implementations must be pure: the same observer and candidates always
// produce the same output.
type Perceiver interface {
	// InputSize is the length of every vector written to out.Inputs.
	InputSize() int
	// QueryRadius is how far around the observer candidates must be gathered.
	QueryRadius() float32
	// Perceive fills out from the candidates, reusing its buffers.
	Perceive(self Observer, nearby []Entry, out *components.Perception)
}

// GatherInputs returns a freshly allocated sensory vector for self.
func GatherInputs(p Perceiver, self Observer, nearby []Entry) []float32 {
	var out components.Perception
	p.Perceive(self, nearby, &out)
	return out.Inputs
}

func resize(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}

// RaycastPerception casts rays at equal angular steps around the full circle.
// Each ray reports min(hit, range)/range for the nearest target it meets,
// or 0 when nothing is within range.
type RaycastPerception struct {
	visionRange float32
	dirs        [][2]float32
}

// NewRaycastPerception creates a caster with rays directions. Ray k points at
// angle 2πk/rays measured from +X toward +Y.
func NewRaycastPerception(rays int, visionRange float32) *RaycastPerception {
	p := &RaycastPerception{visionRange: visionRange, dirs: make([][2]float32, rays)}
	for k := range p.dirs {
		angle := 2 * math.Pi * float64(k) / float64(rays)
		p.dirs[k] = [2]float32{float32(math.Cos(angle)), float32(math.Sin(angle))}
	}
	return p
}

// InputSize returns the number of rays.
func (p *RaycastPerception) InputSize() int { return len(p.dirs) }

// QueryRadius returns the vision range.
func (p *RaycastPerception) QueryRadius() float32 { return p.visionRange }

// Direction returns the unit vector of ray k.
func (p *RaycastPerception) Direction(k int) (dx, dy float32) {
	return p.dirs[k][0], p.dirs[k][1]
}

// Perceive casts every ray against the target candidates.
func (p *RaycastPerception) Perceive(self Observer, nearby []Entry, out *components.Perception) {
	n := len(p.dirs)
	out.Inputs = resize(out.Inputs, n)
	if cap(out.Rays) < n {
		out.Rays = make([]components.RayHit, n)
	}
	out.Rays = out.Rays[:n]

	for k, d := range p.dirs {
		dist, hit := CastRay(self.X, self.Y, d[0], d[1], p.visionRange, nearby)
		if hit {
			out.Inputs[k] = min(dist, p.visionRange) / p.visionRange
			out.Rays[k] = components.RayHit{EndX: self.X + d[0]*dist, EndY: self.Y + d[1]*dist, Hit: true}
		} else {
			out.Inputs[k] = 0
			out.Rays[k] = components.RayHit{EndX: self.X + d[0]*p.visionRange, EndY: self.Y + d[1]*p.visionRange}
		}
	}
}

// CastRay returns the distance along (dx, dy) to the nearest target entry
// surface within maxRange. Entries that are not targets or have unusable
// geometry are ignored.
func CastRay(ox, oy, dx, dy, maxRange float32, nearby []Entry) (float32, bool) {
	best := float32(0)
	found := false
	for _, e := range nearby {
		if e.Kind != components.KindTarget || !e.valid() || e.Radius <= 0 {
			continue
		}
		if d, ok := RayCircle(ox, oy, dx, dy, e.X, e.Y, e.Radius, maxRange); ok && (!found || d < best) {
			best = d
			found = true
		}
	}
	return best, found
}

// RayCircle intersects a ray from (ox, oy) along unit direction (dx, dy) with
// a circle. The circle centre is projected onto the ray; a projection behind
// the origin or beyond maxRange misses. Otherwise the ray hits when the
// perpendicular distance d is at most r, at entry distance t - sqrt(r² - d²).
func RayCircle(ox, oy, dx, dy, cx, cy, r, maxRange float32) (float32, bool) {
	lx, ly := cx-ox, cy-oy
	t := lx*dx + ly*dy
	if t < 0 || t > maxRange {
		return 0, false
	}

	d2 := lx*lx + ly*ly - t*t
	if d2 < 0 {
		d2 = 0
	}
	r2 := r * r
	if d2 > r2 {
		return 0, false
	}

	entry := t - sqrtf(r2-d2)
	if entry < 0 {
		// origin is inside the circle
		entry = 0
	}
	return entry, true
}

// NearestPerception encodes positions of the nearest objects:
//
//	[wall, x, y, orbX, orbY, t1X, t1Y, ..., tMX, tMY]
//
// Positions are divided by the arena size and clamped to [0, 1]. Empty slots
// hold Sentinel.
type NearestPerception struct {
	Targets     int
	VisionRange float32
	Width       float32
	Height      float32
	Sentinel    float32
}

// InputSize returns 5 + 2*Targets.
func (p *NearestPerception) InputSize() int { return 5 + 2*p.Targets }

// QueryRadius returns the vision range.
func (p *NearestPerception) QueryRadius() float32 { return p.VisionRange }

type ranked struct {
	e  Entry
	d2 float32
}

// Perceive fills the vector from the nearest orb (the player counts as one)
// and the nearest targets whose centers lie within VisionRange.
// Targets at equal distance keep their order in nearby.
func (p *NearestPerception) Perceive(self Observer, nearby []Entry, out *components.Perception) {
	out.Inputs = resize(out.Inputs, p.InputSize())
	out.Rays = out.Rays[:0]
	in := out.Inputs

	if self.WallContact {
		in[0] = 1
	} else {
		in[0] = 0
	}
	in[1] = p.normX(self.X)
	in[2] = p.normY(self.Y)

	var nearest ranked
	haveOrb := false
	best := make([]ranked, 0, p.Targets)
	r2 := p.VisionRange * p.VisionRange
	for _, e := range nearby {
		if e.ID == self.ID || !e.valid() {
			continue
		}
		dx, dy := e.X-self.X, e.Y-self.Y
		d2 := dx*dx + dy*dy
		// nearby may hold anything sharing a tree node with self
		if d2 > r2 {
			continue
		}

		switch e.Kind {
		case components.KindOrb, components.KindPlayer:
			if !haveOrb || d2 < nearest.d2 {
				nearest = ranked{e, d2}
				haveOrb = true
			}
		case components.KindTarget:
			best = insertRanked(best, ranked{e, d2}, p.Targets)
		}
	}

	if haveOrb {
		in[3] = p.normX(nearest.e.X)
		in[4] = p.normY(nearest.e.Y)
	} else {
		in[3], in[4] = p.Sentinel, p.Sentinel
	}

	for i := 0; i < p.Targets; i++ {
		slot := 5 + 2*i
		if i < len(best) {
			in[slot] = p.normX(best[i].e.X)
			in[slot+1] = p.normY(best[i].e.Y)
		} else {
			in[slot], in[slot+1] = p.Sentinel, p.Sentinel
		}
	}
}

// insertRanked keeps the limit closest entries in ascending order. A new entry
// goes after any existing entry at the same distance.
func insertRanked(best []ranked, r ranked, limit int) []ranked {
	if limit <= 0 {
		return best
	}
	pos := len(best)
	for i, b := range best {
		if r.d2 < b.d2 {
			pos = i
			break
		}
	}
	if pos >= limit {
		return best
	}
	if len(best) < limit {
		best = append(best, ranked{})
	}
	copy(best[pos+1:], best[pos:len(best)-1])
	best[pos] = r
	return best
}

func (p *NearestPerception) normX(x float32) float32 {
	if p.Width <= 0 {
		return 0
	}
	return clamp01(x / p.Width)
}

func (p *NearestPerception) normY(y float32) float32 {
	if p.Height <= 0 {
		return 0
	}
	return clamp01(y / p.Height)
}
