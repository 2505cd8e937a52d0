package main

// Side identifies which half of the playfield a ship defends
type Side int

const (
	SideLeft  Side = 0
	SideRight Side = 1
)

func (s Side) String() string {
	if s == SideRight {
		return "right"
	}
	return "left"
}

// Ship collision box, centered on the ship position
const (
	ShipBoxW = 32.0
	ShipBoxH = 48.0
)

// Ship is one participant's vessel. The creator always flies the left
// column, the joiner the right; sides are never reassigned.
type Ship struct {
	ID           string // connection identity, stable for the session
	Name         string
	Side         Side
	X, Y         float64
	Score        int
	Respawning   bool    // while true, moves are ignored and collisions skip this ship
	FireCD       float64 // ms until the ship may fire again
	AuthPlayerID int64   // 0 = guest
}

// NewShip places a ship at its side's spawn column
func NewShip(id, name string, side Side) *Ship {
	x := LeftSpawnX
	if side == SideRight {
		x = RightSpawnX
	}
	return &Ship{
		ID:   id,
		Name: name,
		Side: side,
		X:    x,
		Y:    SpawnY,
	}
}

// MoveTo sets the vertical position, clamped to the playfield band.
// Returns false if the ship is respawning and the move was dropped.
func (s *Ship) MoveTo(y float64) bool {
	if s.Respawning {
		return false
	}
	s.Y = Clamp(y, BoundsTop, BoundsBottom)
	return true
}

// Penalize deducts points, flooring the score at zero
func (s *Ship) Penalize(points int) {
	s.Score -= points
	if s.Score < 0 {
		s.Score = 0
	}
}

// Award adds points for a successful hit
func (s *Ship) Award(points int) {
	s.Score += points
}

// BeginRespawn freezes the ship until FinishRespawn runs
func (s *Ship) BeginRespawn() {
	s.Respawning = true
}

// FinishRespawn resets the ship to its spawn point and reactivates it
func (s *Ship) FinishRespawn() {
	if s.Side == SideRight {
		s.X = RightSpawnX
	} else {
		s.X = LeftSpawnX
	}
	s.Y = SpawnY
	s.Respawning = false
}

// CanFire reports whether a fire intent would produce a laser
func (s *Ship) CanFire() bool {
	return !s.Respawning && s.FireCD <= 0
}

// Cooldown ticks the fire cooldown down by dtMs
func (s *Ship) Cooldown(dtMs float64) {
	if s.FireCD > 0 {
		s.FireCD -= dtMs
		if s.FireCD < 0 {
			s.FireCD = 0
		}
	}
}

// ToState converts to protocol state
func (s *Ship) ToState() ShipState {
	return ShipState{
		ID:         s.ID,
		Name:       s.Name,
		Side:       s.Side.String(),
		X:          s.X,
		Y:          round1(s.Y),
		Score:      s.Score,
		Respawning: s.Respawning,
		CooldownMs: round1(s.FireCD),
	}
}
