package main

// Rect is a min-corner axis-aligned box
type Rect struct {
	X, Y, W, H float64
}

// Overlaps checks AABB overlap
func (a Rect) Overlaps(b Rect) bool {
	return a.X < b.X+b.W && a.X+a.W > b.X &&
		a.Y < b.Y+b.H && a.Y+a.H > b.Y
}

func shipRect(s *Ship) Rect {
	return Rect{X: s.X - ShipBoxW/2, Y: s.Y - ShipBoxH/2, W: ShipBoxW, H: ShipBoxH}
}

func meteorRect(m *Meteor) Rect {
	return Rect{X: m.X - MeteorBoxW/2, Y: m.Y - MeteorBoxH/2, W: MeteorBoxW, H: MeteorBoxH}
}

func laserRect(l *Laser) Rect {
	return Rect{X: l.X - LaserBoxW/2, Y: l.Y - LaserBoxH/2, W: LaserBoxW, H: LaserBoxH}
}

type collisionKind int

const (
	hitShipMeteor collisionKind = iota
	hitLaserMeteor
	hitLaserShip
)

// collisionEvent is one detected overlap. Detection is pure; all state
// effects (scores, respawn scheduling, dedup) are applied by the Game.
type collisionEvent struct {
	kind   collisionKind
	ship   *Ship
	laser  *Laser
	meteor *Meteor
}

// detectCollisions runs the pairwise checks for one tick over the
// post-motion state. Respawning ships, retired lasers and destroyed
// meteors are excluded. Each laser reports at most one impact.
func detectCollisions(ships []*Ship, lasers []*Laser, meteors []*Meteor, grid *SpatialGrid) []collisionEvent {
	var events []collisionEvent

	grid.Clear()
	for i, m := range meteors {
		if m.Stage == StageDestroyed {
			continue
		}
		grid.InsertRect(meteorRect(m), i)
	}

	// Ship x meteor
	for _, s := range ships {
		if s.Respawning {
			continue
		}
		sr := shipRect(s)
		for _, m := range meteors {
			if m.Stage == StageDestroyed {
				continue
			}
			if sr.Overlaps(meteorRect(m)) {
				events = append(events, collisionEvent{kind: hitShipMeteor, ship: s, meteor: m})
			}
		}
	}

	for _, l := range lasers {
		if !l.Alive {
			continue
		}
		lr := laserRect(l)

		// Laser x meteor, broad-phased through the grid
		struck := false
		grid.QueryRect(lr, func(i int) bool {
			m := meteors[i]
			if m.Stage == StageDestroyed || !lr.Overlaps(meteorRect(m)) {
				return true
			}
			events = append(events, collisionEvent{kind: hitLaserMeteor, laser: l, meteor: m})
			struck = true
			return false
		})
		if struck {
			continue
		}

		// Laser x opposing ship
		for _, s := range ships {
			if s.Respawning || s.Side == l.Owner {
				continue
			}
			if lr.Overlaps(shipRect(s)) {
				events = append(events, collisionEvent{kind: hitLaserShip, laser: l, ship: s})
				break
			}
		}
	}

	return events
}
