package main

import "testing"

func TestRectOverlaps(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	cases := []struct {
		name string
		b    Rect
		want bool
	}{
		{"overlapping", Rect{X: 5, Y: 5, W: 10, H: 10}, true},
		{"contained", Rect{X: 2, Y: 2, W: 3, H: 3}, true},
		{"touching edges", Rect{X: 10, Y: 0, W: 5, H: 5}, false},
		{"disjoint", Rect{X: 50, Y: 50, W: 5, H: 5}, false},
	}
	for _, tc := range cases {
		if got := a.Overlaps(tc.b); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func dormantMeteors(n int) []*Meteor {
	// Parked far off-field and motionless so they never interfere.
	ms := make([]*Meteor, n)
	for i := range ms {
		ms[i] = &Meteor{ID: i, X: -5000, Y: -5000}
	}
	return ms
}

func TestDetectShipMeteor(t *testing.T) {
	ship := NewShip("a", "Ava", SideLeft)
	meteors := dormantMeteors(2)
	meteors[0].X = ship.X
	meteors[0].Y = ship.Y

	var grid SpatialGrid
	events := detectCollisions([]*Ship{ship}, nil, meteors, &grid)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.kind != hitShipMeteor || ev.ship != ship || ev.meteor != meteors[0] {
		t.Error("wrong event for overlapping ship and meteor")
	}
}

func TestDetectSkipsRespawningShip(t *testing.T) {
	ship := NewShip("a", "Ava", SideLeft)
	ship.BeginRespawn()
	meteors := dormantMeteors(1)
	meteors[0].X = ship.X
	meteors[0].Y = ship.Y

	var grid SpatialGrid
	if events := detectCollisions([]*Ship{ship}, nil, meteors, &grid); len(events) != 0 {
		t.Errorf("respawning ship produced %d events", len(events))
	}
}

func TestDetectSkipsDestroyedMeteor(t *testing.T) {
	ship := NewShip("a", "Ava", SideLeft)
	meteors := dormantMeteors(1)
	meteors[0].X = ship.X
	meteors[0].Y = ship.Y
	meteors[0].Destroy()

	var grid SpatialGrid
	if events := detectCollisions([]*Ship{ship}, nil, meteors, &grid); len(events) != 0 {
		t.Errorf("destroyed meteor produced %d events", len(events))
	}
}

func TestDetectLaserMeteor(t *testing.T) {
	st := DefaultSettings()
	ship := NewShip("a", "Ava", SideLeft)
	l := NewLaser(ship, &st)
	l.X, l.Y = 400, 300
	meteors := dormantMeteors(3)
	meteors[1].X = 400
	meteors[1].Y = 300

	var grid SpatialGrid
	events := detectCollisions([]*Ship{ship}, []*Laser{l}, meteors, &grid)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].kind != hitLaserMeteor || events[0].meteor != meteors[1] {
		t.Error("wrong laser-meteor event")
	}
}

func TestDetectLaserHitsAtMostOnce(t *testing.T) {
	st := DefaultSettings()
	shooter := NewShip("a", "Ava", SideLeft)
	target := NewShip("b", "Bo", SideRight)
	l := NewLaser(shooter, &st)
	// Laser overlapping a meteor and the opposing ship at once.
	l.X, l.Y = target.X, target.Y
	meteors := dormantMeteors(1)
	meteors[0].X = target.X
	meteors[0].Y = target.Y

	var grid SpatialGrid
	events := detectCollisions([]*Ship{shooter, target}, []*Laser{l}, meteors, &grid)
	laserEvents := 0
	for _, ev := range events {
		if ev.laser == l {
			laserEvents++
			if ev.kind != hitLaserMeteor {
				t.Error("meteor impact should win over the ship")
			}
		}
	}
	if laserEvents != 1 {
		t.Errorf("laser produced %d impacts, want 1", laserEvents)
	}
}

func TestDetectLaserIgnoresOwnSide(t *testing.T) {
	st := DefaultSettings()
	shooter := NewShip("a", "Ava", SideLeft)
	l := NewLaser(shooter, &st)
	l.X, l.Y = shooter.X, shooter.Y

	var grid SpatialGrid
	events := detectCollisions([]*Ship{shooter}, []*Laser{l}, dormantMeteors(1), &grid)
	if len(events) != 0 {
		t.Errorf("laser hit its own ship: %d events", len(events))
	}
}

func TestDetectLaserShip(t *testing.T) {
	st := DefaultSettings()
	shooter := NewShip("a", "Ava", SideLeft)
	target := NewShip("b", "Bo", SideRight)
	l := NewLaser(shooter, &st)
	l.X, l.Y = target.X, target.Y

	var grid SpatialGrid
	events := detectCollisions([]*Ship{shooter, target}, []*Laser{l}, dormantMeteors(1), &grid)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].kind != hitLaserShip || events[0].ship != target {
		t.Error("wrong laser-ship event")
	}
}
