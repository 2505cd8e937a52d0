package main

// Laser collision box and muzzle offset from the ship center
const (
	LaserBoxW   = 16.0
	LaserBoxH   = 8.0
	LaserOffset = 20.0
)

// Laser is a short-lived projectile. Left ships fire rightward, right
// ships leftward; the sign of VX carries the direction.
type Laser struct {
	ID    string
	Owner Side
	X, Y  float64
	VX    float64
	Life  float64 // ms remaining
	Alive bool
}

// NewLaser spawns a laser at the ship's muzzle, heading at the opponent
func NewLaser(owner *Ship, st *Settings) *Laser {
	x := owner.X + LaserOffset
	vx := st.LaserSpeed
	if owner.Side == SideRight {
		x = owner.X - LaserOffset
		vx = -st.LaserSpeed
	}
	return &Laser{
		ID:    GenerateID(3),
		Owner: owner.Side,
		X:     x,
		Y:     owner.Y,
		VX:    vx,
		Life:  st.LaserLifespanMs,
		Alive: true,
	}
}

// Update advances the laser one tick and retires it when its lifetime
// expires or it exits the playfield horizontally
func (l *Laser) Update(dtMs float64) {
	if !l.Alive {
		return
	}
	l.X += l.VX * dtMs / 1000
	l.Life -= dtMs
	if l.Life <= 0 || l.X <= 0 || l.X >= PlayfieldWidth {
		l.Alive = false
	}
}

// ToState converts to protocol state
func (l *Laser) ToState() LaserState {
	return LaserState{
		ID:   l.ID,
		X:    round1(l.X),
		Y:    round1(l.Y),
		Side: l.Owner.String(),
	}
}
