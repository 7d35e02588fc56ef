package telemetry

// Frame is a read-only view of the arena after one tick, shared with
// observers outside the simulation goroutine. A published frame is never
// modified.
type Frame struct {
	Tick           int32   `json:"tick"`
	Generation     int     `json:"generation"`
	GenerationTick int32   `json:"generation_tick"`
	GenerationLen  int32   `json:"generation_len"`
	HighScore      float32 `json:"high_score"`
	Paused         bool    `json:"paused"`

	Orbs    []FrameOrb    `json:"orbs"`
	Targets []TargetState `json:"targets"`
	Player  *PlayerState  `json:"player,omitempty"`
}

// FrameOrb is the per-orb slice of a Frame.
type FrameOrb struct {
	ID      uint32  `json:"id"`
	X       float32 `json:"x"`
	Y       float32 `json:"y"`
	Radius  float32 `json:"radius"`
	Fitness float32 `json:"fitness"`
}

// Best returns the orb with the highest fitness, or false if there are none.
func (f *Frame) Best() (FrameOrb, bool) {
	if len(f.Orbs) == 0 {
		return FrameOrb{}, false
	}
	best := f.Orbs[0]
	for _, o := range f.Orbs[1:] {
		if o.Fitness > best.Fitness {
			best = o
		}
	}
	return best, true
}
