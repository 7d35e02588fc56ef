package components

// Body holds physical properties of an entity.
type Body struct {
	Radius float32
}

// Mobility holds per-entity movement limits.
type Mobility struct {
	Speed float32 // steering scale, world units per tick at full output
}
