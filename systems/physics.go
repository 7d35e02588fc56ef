package systems

import "github.com/pthm-cable/orbs/components"

// MoveParams holds the shared movement constants.
type MoveParams struct {
	Inertia     float32 // fraction of velocity kept each tick
	Restitution float32 // fraction of velocity kept when bouncing off a wall
}

// Movable is the capability set needed to move an entity.
type Movable struct {
	Pos      *components.Position
	Vel      *components.Velocity
	Body     *components.Body
	Mobility *components.Mobility
	Steer    *components.Steering
}

// MoveResult reports what happened during one movement step.
type MoveResult struct {
	WallContact bool
	Moved       bool
}

// Move applies steering to velocity, integrates position and reflects off the
// arena walls, keeping the whole body inside the arena.
// Velocity and position are in world units per tick.
func Move(m Movable, arena Rect, p MoveParams) MoveResult {
	sx, sy := m.Steer.X, m.Steer.Y
	if !finite(sx) || !finite(sy) {
		sx, sy = 0, 0
	}

	m.Vel.X = m.Vel.X*p.Inertia + sx*m.Mobility.Speed
	m.Vel.Y = m.Vel.Y*p.Inertia + sy*m.Mobility.Speed
	if !finite(m.Vel.X) || !finite(m.Vel.Y) {
		m.Vel.X, m.Vel.Y = 0, 0
	}

	if !finite(m.Pos.X) || !finite(m.Pos.Y) {
		m.Pos.X, m.Pos.Y = arena.X+arena.W/2, arena.Y+arena.H/2
	}
	oldX, oldY := m.Pos.X, m.Pos.Y
	m.Pos.X += m.Vel.X
	m.Pos.Y += m.Vel.Y

	var res MoveResult
	r := m.Body.Radius
	minX, maxX := arena.X+r, arena.X+arena.W-r
	minY, maxY := arena.Y+r, arena.Y+arena.H-r
	if minX > maxX {
		minX = arena.X + arena.W/2
		maxX = minX
	}
	if minY > maxY {
		minY = arena.Y + arena.H/2
		maxY = minY
	}

	if m.Pos.X < minX {
		m.Pos.X = minX
		m.Vel.X = -m.Vel.X * p.Restitution
		res.WallContact = true
	} else if m.Pos.X > maxX {
		m.Pos.X = maxX
		m.Vel.X = -m.Vel.X * p.Restitution
		res.WallContact = true
	}
	if m.Pos.Y < minY {
		m.Pos.Y = minY
		m.Vel.Y = -m.Vel.Y * p.Restitution
		res.WallContact = true
	} else if m.Pos.Y > maxY {
		m.Pos.Y = maxY
		m.Vel.Y = -m.Vel.Y * p.Restitution
		res.WallContact = true
	}

	dx, dy := m.Pos.X-oldX, m.Pos.Y-oldY
	res.Moved = dx*dx+dy*dy > 1e-6
	return res
}
