package systems

import "github.com/pthm-cable/orbs/components"

// ContactKind classifies a resolved overlap.
type ContactKind uint8

const (
	// ContactTarget means the agent consumed the target.
	ContactTarget ContactKind = iota
	// ContactOrb means two agents touched. Agents never consume each other.
	ContactOrb
)

// Contact is one overlap found during resolution.
type Contact struct {
	Kind  ContactKind
	Agent Entry
	Other Entry
}

// CollisionResolver finds consumptions and agent contacts for one tick.
type CollisionResolver struct {
	claimed map[uint32]struct{}
	pairs   map[[2]uint32]struct{}
	buf     []Entry
}

// NewCollisionResolver creates a resolver with empty scratch state.
func NewCollisionResolver() *CollisionResolver {
	return &CollisionResolver{
		claimed: make(map[uint32]struct{}),
		pairs:   make(map[[2]uint32]struct{}),
	}
}

// Resolve checks every agent, in order, against the index. A target overlapped
// by an orb is claimed by the first orb to reach it and ignored for the rest of
// the call. Agent-agent overlaps are reported once per pair. maxRadius is the
// largest radius of any indexed entry.
func (r *CollisionResolver) Resolve(agents []Entry, index *QuadTree, maxRadius float32) []Contact {
	clear(r.claimed)
	clear(r.pairs)

	var contacts []Contact
	for _, a := range agents {
		if !a.valid() {
			continue
		}
		r.buf = index.RetrieveRadius(r.buf[:0], a.X, a.Y, a.Radius+maxRadius, a.ID)
		for _, c := range r.buf {
			if !c.valid() || !overlaps(a, c) {
				continue
			}

			switch c.Kind {
			case components.KindTarget:
				if a.Kind != components.KindOrb {
					continue
				}
				if _, taken := r.claimed[c.ID]; taken {
					continue
				}
				r.claimed[c.ID] = struct{}{}
				contacts = append(contacts, Contact{Kind: ContactTarget, Agent: a, Other: c})

			case components.KindOrb, components.KindPlayer:
				key := [2]uint32{min(a.ID, c.ID), max(a.ID, c.ID)}
				if _, seen := r.pairs[key]; seen {
					continue
				}
				r.pairs[key] = struct{}{}
				contacts = append(contacts, Contact{Kind: ContactOrb, Agent: a, Other: c})
			}
		}
	}
	return contacts
}

// Claimed reports whether a target was consumed by the last Resolve call.
func (r *CollisionResolver) Claimed(id uint32) bool {
	_, ok := r.claimed[id]
	return ok
}

func overlaps(a, b Entry) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	rr := a.Radius + b.Radius
	return dx*dx+dy*dy <= rr*rr
}
