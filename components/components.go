// Package components defines ECS components for the simulation.
//
// Entities are built from capability sets rather than a type hierarchy:
//
//	Movable      Position, Velocity, Body, Mobility, Steering
//	Perceiving   Orb, Perception (always together with Movable)
//	Controllable Player (always together with Movable)
//	Consumable   Position, Body, Target
package components

// Kind identifies what an entity is for spatial queries.
type Kind uint8

const (
	KindOrb Kind = iota
	KindTarget
	KindPlayer
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindOrb:
		return "orb"
	case KindTarget:
		return "target"
	case KindPlayer:
		return "player"
	default:
		return "unknown"
	}
}

// Orb holds per-agent scoring state. The brain lives in Game.brains keyed by ID.
type Orb struct {
	ID          uint32
	Fitness     float32
	WallContact bool  // touched a wall during the last movement step
	Consumed    int32 // targets consumed this generation
	WallTicks   int32 // ticks spent in wall contact this generation
	Contacts    int32 // orb contacts this generation
}

// Reset clears per-generation state, keeping identity.
func (o *Orb) Reset() {
	o.Fitness = 0
	o.WallContact = false
	o.Consumed = 0
	o.WallTicks = 0
	o.Contacts = 0
}

// Target is a consumable entity.
type Target struct {
	ID        uint32
	Destroyed bool
}

// Player marks the keyboard-controlled orb.
type Player struct {
	ID       uint32
	Contacts int32
}

// RayHit is one ray's result for the current tick, kept for debug drawing.
type RayHit struct {
	EndX, EndY float32 // hit point, or the end of the ray when nothing was hit
	Hit        bool
}

// Perception holds the sensory vector built at the start of the tick.
type Perception struct {
	Inputs []float32
	Rays   []RayHit // empty in nearest-object mode
}
