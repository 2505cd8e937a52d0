package main

// Meteor collision box, centered on the meteor position. The visual
// scale does not change the hitbox.
const (
	MeteorBoxW = 34.5
	MeteorBoxH = 31.5
)

// MeteorStage tracks degradation. Transitions only move forward; the
// stage resets to pristine when the meteor respawns.
type MeteorStage int

const (
	StagePristine  MeteorStage = 0
	StageDamaged   MeteorStage = 1
	StageDestroyed MeteorStage = 2
)

// Meteor is a drifting hazard. The slot (and its id) survives respawns;
// only the kinematic state is regenerated.
type Meteor struct {
	ID     int
	X, Y   float64
	VX, VY float64
	Scale  float64
	Stage  MeteorStage
	// InitVX is the horizontal velocity used by the elastic-exchange
	// formula; updated after every laser hit.
	InitVX float64
}

// NewMeteor spawns a meteor in the central band with random kinematics
func NewMeteor(id int, st *Settings) *Meteor {
	m := &Meteor{ID: id}
	m.spawn(st, randRange(0, PlayfieldHeight))
	return m
}

func (m *Meteor) spawn(st *Settings, y float64) {
	mid := PlayfieldWidth / 2
	m.X = randRange(mid-st.MeteorXBand, mid+st.MeteorXBand)
	m.Y = y
	m.VX = randRange(st.MeteorVelMin, st.MeteorVelMax)
	m.VY = randRange(st.MeteorVelMin, st.MeteorVelMax)
	m.Scale = randRange(st.MeteorScaleMin, st.MeteorScaleMax)
	m.InitVX = m.VX
	m.Stage = StagePristine
}

// Respawn regenerates the meteor in place, snapped just outside the top
// or bottom edge so it drifts back into view
func (m *Meteor) Respawn(st *Settings) {
	y := -MeteorBoxH
	if randFloat() < 0.5 {
		y = PlayfieldHeight + MeteorBoxH
	}
	m.spawn(st, y)
}

// Update advances the meteor one tick (no gravity)
func (m *Meteor) Update(dtMs float64) {
	m.X += m.VX * dtMs / 1000
	m.Y += m.VY * dtMs / 1000
}

// Hit applies one laser impact: a single degradation step plus the
// elastic velocity exchange v' = (laserSpeed + vx*mass) / mass.
// Returns true if the meteor is now destroyed.
func (m *Meteor) Hit(st *Settings) bool {
	final := (st.LaserSpeed + m.InitVX*st.MeteorMass) / st.MeteorMass
	m.VX = final
	m.InitVX = final

	switch m.Stage {
	case StagePristine:
		m.Stage = StageDamaged
	case StageDamaged:
		m.Stage = StageDestroyed
	}
	return m.Stage == StageDestroyed
}

// Destroy marks the meteor destroyed outright (ship impact)
func (m *Meteor) Destroy() {
	m.Stage = StageDestroyed
}

// OutOfBounds reports whether the meteor has fully left the playfield
func (m *Meteor) OutOfBounds() bool {
	margin := MeteorBoxW * 2
	return m.X < -margin || m.X > PlayfieldWidth+margin ||
		m.Y < -margin || m.Y > PlayfieldHeight+margin
}

// ToState converts to protocol state
func (m *Meteor) ToState() MeteorState {
	return MeteorState{
		ID:    m.ID,
		X:     round1(m.X),
		Y:     round1(m.Y),
		VX:    round1(m.VX),
		VY:    round1(m.VY),
		Scale: m.Scale,
		Stage: int(m.Stage),
	}
}
