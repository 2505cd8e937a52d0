package main

import "time"

const (
	TickRate     = 60 // simulation ticks per second
	TickDuration = time.Second / TickRate
)

// Playfield geometry. Ships live on fixed X columns and move vertically
// inside the bounds band; the top strip is reserved for the HUD.
const (
	PlayfieldWidth  = 800.0
	PlayfieldHeight = 600.0
	BoundsTop       = 40.0
	BoundsBottom    = 550.0

	LeftSpawnX  = 25.0
	RightSpawnX = 775.0
	SpawnY      = 300.0
)

// CollisionMode selects what a ship-meteor impact does
type CollisionMode int

const (
	// ModePenalizeRespawn deducts points and respawns the ship after a delay
	ModePenalizeRespawn CollisionMode = 0
	// ModeSuddenDeath ends the match immediately in favor of the other side
	ModeSuddenDeath CollisionMode = 1
)

// Settings holds the per-session tuning knobs. All durations are in
// milliseconds, all speeds in pixels per second.
type Settings struct {
	GameDurationMs float64
	SpawnDelayMs   float64 // ship respawn delay after being hit
	DestroyDelayMs float64 // meteor respawn delay (explosion plays out on clients)

	LaserMax        int
	LaserIntervalMs float64
	LaserSpeed      float64
	LaserLifespanMs float64

	MeteorCount    int
	MeteorXBand    float64 // horizontal spawn band half-width around the midpoint
	MeteorVelMin   float64
	MeteorVelMax   float64
	MeteorScaleMin float64
	MeteorScaleMax float64
	MeteorMass     float64

	MeteorScore   int
	LaserPenalty  int
	MeteorPenalty int

	Mode CollisionMode
}

// DefaultSettings returns the standard match tuning
func DefaultSettings() Settings {
	return Settings{
		GameDurationMs: 120000,
		SpawnDelayMs:   2000,
		DestroyDelayMs: 200,

		LaserMax:        30,
		LaserIntervalMs: 450,
		LaserSpeed:      200,
		LaserLifespanMs: 5000,

		MeteorCount:    50,
		MeteorXBand:    200,
		MeteorVelMin:   -50,
		MeteorVelMax:   50,
		MeteorScaleMin: 1.0,
		MeteorScaleMax: 1.5,
		MeteorMass:     10000,

		MeteorScore:   100,
		LaserPenalty:  100,
		MeteorPenalty: 250,

		Mode: ModePenalizeRespawn,
	}
}
