package main

import "testing"

func TestNewShipSides(t *testing.T) {
	left := NewShip("a", "Ava", SideLeft)
	if left.X != LeftSpawnX || left.Y != SpawnY {
		t.Errorf("left spawn at (%f, %f)", left.X, left.Y)
	}
	if left.Side.String() != "left" {
		t.Errorf("expected side left, got %s", left.Side)
	}

	right := NewShip("b", "Bo", SideRight)
	if right.X != RightSpawnX {
		t.Errorf("right spawn at x=%f", right.X)
	}
	if right.Side.String() != "right" {
		t.Errorf("expected side right, got %s", right.Side)
	}
}

func TestShipMoveClamp(t *testing.T) {
	s := NewShip("a", "Ava", SideLeft)

	s.MoveTo(-500)
	if s.Y != BoundsTop {
		t.Errorf("expected clamp to %f, got %f", BoundsTop, s.Y)
	}

	s.MoveTo(10000)
	if s.Y != BoundsBottom {
		t.Errorf("expected clamp to %f, got %f", BoundsBottom, s.Y)
	}

	s.MoveTo(123)
	if s.Y != 123 {
		t.Errorf("expected y=123, got %f", s.Y)
	}
}

func TestShipMoveIgnoredWhileRespawning(t *testing.T) {
	s := NewShip("a", "Ava", SideLeft)
	s.MoveTo(100)
	s.BeginRespawn()
	if s.MoveTo(400) {
		t.Error("move should be dropped while respawning")
	}
	if s.Y != 100 {
		t.Errorf("position changed while respawning: %f", s.Y)
	}
}

func TestShipScoreFloor(t *testing.T) {
	s := NewShip("a", "Ava", SideLeft)
	s.Award(50)
	s.Penalize(250)
	if s.Score != 0 {
		t.Errorf("score must floor at 0, got %d", s.Score)
	}
	s.Penalize(100)
	if s.Score != 0 {
		t.Errorf("score went negative: %d", s.Score)
	}
}

func TestShipFinishRespawn(t *testing.T) {
	s := NewShip("b", "Bo", SideRight)
	s.MoveTo(60)
	s.BeginRespawn()
	s.FinishRespawn()
	if s.Respawning {
		t.Error("still respawning after reset")
	}
	if s.X != RightSpawnX || s.Y != SpawnY {
		t.Errorf("not at spawn point: (%f, %f)", s.X, s.Y)
	}
}

func TestShipCooldown(t *testing.T) {
	s := NewShip("a", "Ava", SideLeft)
	if !s.CanFire() {
		t.Error("fresh ship should be able to fire")
	}
	s.FireCD = 100
	if s.CanFire() {
		t.Error("cooling ship should not fire")
	}
	s.Cooldown(60)
	s.Cooldown(60)
	if s.FireCD != 0 {
		t.Errorf("cooldown should bottom out at 0, got %f", s.FireCD)
	}
	s.BeginRespawn()
	if s.CanFire() {
		t.Error("respawning ship should not fire")
	}
}
