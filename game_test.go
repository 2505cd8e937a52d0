package main

import (
	"sync"
	"testing"
	"time"
)

// mockBroadcaster records everything sent to one participant
type mockBroadcaster struct {
	mu     sync.Mutex
	json   []Envelope
	binary [][]byte
}

func (m *mockBroadcaster) SendJSON(msg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if env, ok := msg.(Envelope); ok {
		m.json = append(m.json, env)
	}
}

func (m *mockBroadcaster) SendBinary(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.binary = append(m.binary, data)
}

func (m *mockBroadcaster) countType(t string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, env := range m.json {
		if env.T == t {
			n++
		}
	}
	return n
}

func (m *mockBroadcaster) lastOfType(t string) (Envelope, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.json) - 1; i >= 0; i-- {
		if m.json[i].T == t {
			return m.json[i], true
		}
	}
	return Envelope{}, false
}

func (m *mockBroadcaster) binaryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.binary)
}

func testSettings() Settings {
	st := DefaultSettings()
	st.MeteorCount = 3
	st.SpawnDelayMs = 20
	st.DestroyDelayMs = 10
	return st
}

// newActiveGame seats Ava (left) and Bo (right), parks the meteor field
// away from both ships and flips the game straight into the active
// phase without the ticker goroutine, so tests can drive update() by hand.
func newActiveGame(t *testing.T, st Settings) (*Game, *mockBroadcaster, *mockBroadcaster) {
	t.Helper()
	g := NewGame("TEST", st, nil, nil)
	if _, err := g.AddShip("conn-a", "Ava"); err != nil {
		t.Fatalf("AddShip: %v", err)
	}
	if _, err := g.AddShip("conn-b", "Bo"); err != nil {
		t.Fatalf("AddShip: %v", err)
	}
	a, b := &mockBroadcaster{}, &mockBroadcaster{}
	g.SetClient("conn-a", a)
	g.SetClient("conn-b", b)
	for i, m := range g.meteors {
		m.X = PlayfieldWidth / 2
		m.Y = 60 + float64(i)*40
		m.VX, m.VY = 0, 0
		m.InitVX = 0
	}
	g.phase = PhaseActive
	return g, a, b
}

func (g *Game) shipByConn(id string) *Ship {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ships[id]
}

func TestAddShipSidesAndCapacity(t *testing.T) {
	g := NewGame("TEST", testSettings(), nil, nil)
	a, err := g.AddShip("conn-a", "Ava")
	if err != nil {
		t.Fatalf("first AddShip: %v", err)
	}
	if a.Side != SideLeft {
		t.Error("creator must get the left side")
	}
	b, err := g.AddShip("conn-b", "Bo")
	if err != nil {
		t.Fatalf("second AddShip: %v", err)
	}
	if b.Side != SideRight {
		t.Error("joiner must get the right side")
	}
	if _, err := g.AddShip("conn-c", "Cy"); err != ErrGameFull {
		t.Errorf("third seat: got %v, want ErrGameFull", err)
	}
}

func TestBeginNeedsTwoShips(t *testing.T) {
	g := NewGame("TEST", testSettings(), nil, nil)
	g.AddShip("conn-a", "Ava")
	g.Begin()
	if g.Phase() != PhaseLobby {
		t.Error("half-empty lobby must not start")
	}
}

func TestBeginBroadcastsStart(t *testing.T) {
	g := NewGame("TEST", testSettings(), nil, nil)
	g.AddShip("conn-a", "Ava")
	g.AddShip("conn-b", "Bo")
	a, b := &mockBroadcaster{}, &mockBroadcaster{}
	g.SetClient("conn-a", a)
	g.SetClient("conn-b", b)

	g.Begin()
	defer g.Stop()

	if g.Phase() != PhaseActive {
		t.Fatal("game not active after Begin")
	}
	if a.countType(MsgStart) != 1 || b.countType(MsgStart) != 1 {
		t.Error("both participants should receive game_start once")
	}

	g.Begin() // second call is a no-op
	if a.countType(MsgStart) != 1 {
		t.Error("Begin must not restart an active game")
	}
}

func TestUpdateBroadcastsSnapshot(t *testing.T) {
	g, a, b := newActiveGame(t, testSettings())
	g.update()
	g.update()
	if a.binaryCount() != 2 || b.binaryCount() != 2 {
		t.Errorf("snapshots: a=%d b=%d, want 2 each", a.binaryCount(), b.binaryCount())
	}
}

func TestClockExpiryEndsOnce(t *testing.T) {
	st := testSettings()
	st.GameDurationMs = 50 // three ticks
	g, a, _ := newActiveGame(t, st)
	g.shipByConn("conn-a").Score = 300
	g.shipByConn("conn-b").Score = 100

	for i := 0; i < 10; i++ {
		g.update()
	}
	if g.Phase() != PhaseEnded {
		t.Fatal("game should end when the clock runs out")
	}
	if a.countType(MsgEnded) != 1 {
		t.Fatalf("game_ended sent %d times, want 1", a.countType(MsgEnded))
	}
	env, _ := a.lastOfType(MsgEnded)
	msg := env.Data.(GameEndedMsg)
	if msg.Reason != EndTimeout {
		t.Errorf("reason %q, want %q", msg.Reason, EndTimeout)
	}
	if msg.Winner != "Ava" {
		t.Errorf("winner %q, want Ava", msg.Winner)
	}
	if msg.ScoreLeft != 300 || msg.ScoreRight != 100 {
		t.Errorf("final scores %d/%d", msg.ScoreLeft, msg.ScoreRight)
	}

	// A final snapshot still goes out on the closing tick, then nothing.
	snaps := a.binaryCount()
	g.update()
	if a.binaryCount() != snaps {
		t.Error("ended game kept broadcasting state")
	}
}

func TestClockExpiryDraw(t *testing.T) {
	st := testSettings()
	st.GameDurationMs = 20
	g, a, _ := newActiveGame(t, st)

	for i := 0; i < 5; i++ {
		g.update()
	}
	env, ok := a.lastOfType(MsgEnded)
	if !ok {
		t.Fatal("no game_ended broadcast")
	}
	if w := env.Data.(GameEndedMsg).Winner; w != "" {
		t.Errorf("tied match reported winner %q", w)
	}
}

func TestFireCooldown(t *testing.T) {
	st := testSettings()
	st.LaserIntervalMs = 30 // two ticks
	g, _, _ := newActiveGame(t, st)

	l := g.HandleFire("conn-a")
	if l == nil {
		t.Fatal("first shot should fire")
	}
	if g.HandleFire("conn-a") != nil {
		t.Error("shot during cooldown should be dropped")
	}
	g.update()
	g.update()
	if g.HandleFire("conn-a") == nil {
		t.Error("cooldown should have expired after two ticks")
	}
}

func TestFireRespectsLaserCap(t *testing.T) {
	st := testSettings()
	st.LaserMax = 1
	g, _, _ := newActiveGame(t, st)

	if g.HandleFire("conn-a") == nil {
		t.Fatal("first shot should fire")
	}
	g.shipByConn("conn-b").FireCD = 0
	if g.HandleFire("conn-b") != nil {
		t.Error("shot above the live-laser cap should be dropped")
	}
}

func TestFireWhileRespawning(t *testing.T) {
	g, _, _ := newActiveGame(t, testSettings())
	g.shipByConn("conn-a").BeginRespawn()
	if g.HandleFire("conn-a") != nil {
		t.Error("respawning ship must not fire")
	}
}

func TestHandleMoveClampsAndGates(t *testing.T) {
	g, _, _ := newActiveGame(t, testSettings())
	g.HandleMove("conn-a", 9999)
	if y := g.shipByConn("conn-a").Y; y != BoundsBottom {
		t.Errorf("move not clamped: y=%f", y)
	}

	g.mu.Lock()
	g.phase = PhaseEnded
	g.mu.Unlock()
	g.HandleMove("conn-a", 200)
	if y := g.shipByConn("conn-a").Y; y != BoundsBottom {
		t.Error("move applied after the game ended")
	}
}

func TestLaserMeteorReportScoresAndDedups(t *testing.T) {
	g, a, _ := newActiveGame(t, testSettings())
	l := g.HandleFire("conn-a")
	if l == nil {
		t.Fatal("fire failed")
	}

	if err := g.HandleLaserMeteorReport(l.ID, 0); err != nil {
		t.Fatalf("first report: %v", err)
	}
	ava := g.shipByConn("conn-a")
	g.mu.Lock()
	score := ava.Score
	stage := g.meteors[0].Stage
	g.mu.Unlock()
	if score != g.settings.MeteorScore {
		t.Errorf("score %d, want %d", score, g.settings.MeteorScore)
	}
	if stage != StageDamaged {
		t.Errorf("meteor stage %d, want damaged", stage)
	}
	if a.countType(MsgScore) != 1 {
		t.Errorf("score_update sent %d times, want 1", a.countType(MsgScore))
	}

	// The laser was consumed, so replaying the same report is a conflict.
	if err := g.HandleLaserMeteorReport(l.ID, 0); err != ErrStateConflict {
		t.Errorf("duplicate report: got %v, want ErrStateConflict", err)
	}
	g.mu.Lock()
	score = ava.Score
	g.mu.Unlock()
	if score != g.settings.MeteorScore {
		t.Error("duplicate report changed the score")
	}
}

func TestLaserMeteorSecondHitDestroys(t *testing.T) {
	g, _, _ := newActiveGame(t, testSettings())
	g.mu.Lock()
	g.meteors[0].Stage = StageDamaged
	g.mu.Unlock()

	l := g.HandleFire("conn-a")
	if err := g.HandleLaserMeteorReport(l.ID, 0); err != nil {
		t.Fatalf("report: %v", err)
	}
	g.mu.Lock()
	stage := g.meteors[0].Stage
	processed := g.processed[0]
	g.mu.Unlock()
	if stage != StageDestroyed {
		t.Error("damaged meteor should be destroyed by the next hit")
	}
	if !processed {
		t.Error("destroyed meteor not marked processed")
	}

	// A fresh laser against the destroyed slot is still a conflict.
	g.shipByConn("conn-a").FireCD = 0
	l2 := g.HandleFire("conn-a")
	if err := g.HandleLaserMeteorReport(l2.ID, 0); err != ErrStateConflict {
		t.Errorf("report on destroyed meteor: got %v, want ErrStateConflict", err)
	}
}

func TestLaserMeteorReportUnknownIDs(t *testing.T) {
	g, _, _ := newActiveGame(t, testSettings())
	if err := g.HandleLaserMeteorReport("nope", 0); err != ErrStateConflict {
		t.Errorf("unknown laser: got %v", err)
	}
	l := g.HandleFire("conn-a")
	if err := g.HandleLaserMeteorReport(l.ID, 999); err != ErrStateConflict {
		t.Errorf("unknown meteor: got %v", err)
	}
}

func TestMeteorShipReportPenalizesAndRespawns(t *testing.T) {
	g, _, _ := newActiveGame(t, testSettings())
	bo := g.shipByConn("conn-b")
	g.mu.Lock()
	bo.Score = 400
	g.mu.Unlock()

	if err := g.HandleMeteorShipReport("conn-b", 1); err != nil {
		t.Fatalf("report: %v", err)
	}
	g.mu.Lock()
	score := bo.Score
	respawning := bo.Respawning
	stage := g.meteors[1].Stage
	g.mu.Unlock()
	if score != 400-g.settings.MeteorPenalty {
		t.Errorf("score %d after meteor impact", score)
	}
	if !respawning {
		t.Error("ship should be frozen for respawn")
	}
	if stage != StageDestroyed {
		t.Error("impacting meteor should be destroyed")
	}

	// Duplicate while the slot is still down.
	if err := g.HandleMeteorShipReport("conn-b", 1); err != ErrStateConflict {
		t.Errorf("duplicate report: got %v", err)
	}

	// Both respawn timers are real; give them room to fire.
	time.Sleep(100 * time.Millisecond)
	g.mu.Lock()
	respawning = bo.Respawning
	x, y := bo.X, bo.Y
	stage = g.meteors[1].Stage
	processed := g.processed[1]
	g.mu.Unlock()
	if respawning {
		t.Error("ship still respawning after the delay")
	}
	if x != RightSpawnX || y != SpawnY {
		t.Errorf("ship respawned at (%f, %f)", x, y)
	}
	if stage != StagePristine {
		t.Error("meteor should respawn pristine")
	}
	if processed {
		t.Error("processed flag should clear on meteor respawn")
	}
	g.Stop()
}

func TestSuddenDeathEndsMatch(t *testing.T) {
	st := testSettings()
	st.Mode = ModeSuddenDeath
	g, a, _ := newActiveGame(t, st)

	if err := g.HandleMeteorShipReport("conn-a", 0); err != nil {
		t.Fatalf("report: %v", err)
	}
	if g.Phase() != PhaseEnded {
		t.Fatal("sudden-death impact should end the match")
	}
	env, ok := a.lastOfType(MsgEnded)
	if !ok {
		t.Fatal("no game_ended broadcast")
	}
	msg := env.Data.(GameEndedMsg)
	if msg.Reason != EndDestroyed {
		t.Errorf("reason %q, want %q", msg.Reason, EndDestroyed)
	}
	if msg.Winner != "Bo" {
		t.Errorf("winner %q, want the surviving ship", msg.Winner)
	}
}

func TestMeteorOutRecycles(t *testing.T) {
	g, _, _ := newActiveGame(t, testSettings())
	g.mu.Lock()
	g.meteors[2].VX = 123 // marker to prove regeneration
	g.mu.Unlock()

	if err := g.HandleMeteorOut(2); err != nil {
		t.Fatalf("meteor out: %v", err)
	}
	g.mu.Lock()
	vx := g.meteors[2].VX
	y := g.meteors[2].Y
	g.mu.Unlock()
	if vx == 123 {
		t.Error("meteor kinematics not regenerated")
	}
	if y != -MeteorBoxH && y != PlayfieldHeight+MeteorBoxH {
		t.Errorf("recycled meteor at y=%f, want an edge", y)
	}

	if err := g.HandleMeteorOut(42); err != ErrStateConflict {
		t.Errorf("unknown meteor: got %v", err)
	}
}

func TestMeteorRecycleAcrossSessions(t *testing.T) {
	g1, _, _ := newActiveGame(t, testSettings())
	g2, _, _ := newActiveGame(t, testSettings())

	var wg sync.WaitGroup
	for _, g := range []*Game{g1, g2} {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				g.HandleMeteorOut(0)
			}
		}()
	}
	wg.Wait()

	mid := PlayfieldWidth / 2
	for _, g := range []*Game{g1, g2} {
		g.mu.Lock()
		x := g.meteors[0].X
		g.mu.Unlock()
		if x < mid-g.settings.MeteorXBand || x > mid+g.settings.MeteorXBand {
			t.Errorf("recycled meteor at x=%f, outside the band", x)
		}
	}
}

func TestLeaveEndsActiveMatch(t *testing.T) {
	g, _, b := newActiveGame(t, testSettings())
	g.Leave("conn-a")

	if g.Phase() != PhaseEnded {
		t.Fatal("match should end when a participant leaves")
	}
	env, ok := b.lastOfType(MsgEnded)
	if !ok {
		t.Fatal("no game_ended broadcast to the remaining participant")
	}
	msg := env.Data.(GameEndedMsg)
	if msg.Reason != EndDisconnection {
		t.Errorf("reason %q, want %q", msg.Reason, EndDisconnection)
	}
	if msg.Winner != "Bo" {
		t.Errorf("winner %q, want the ship that stayed", msg.Winner)
	}
}

func TestLeaveFromLobbyDoesNotEnd(t *testing.T) {
	g := NewGame("TEST", testSettings(), nil, nil)
	g.AddShip("conn-a", "Ava")
	if n := g.Leave("conn-a"); n != 0 {
		t.Errorf("remaining count %d, want 0", n)
	}
	if g.Phase() != PhaseLobby {
		t.Error("lobby departure must not flip the phase")
	}
}

func TestLaserShipCollisionInUpdate(t *testing.T) {
	g, _, _ := newActiveGame(t, testSettings())
	ava := g.shipByConn("conn-a")
	bo := g.shipByConn("conn-b")
	g.mu.Lock()
	bo.Score = 300
	l := NewLaser(ava, &g.settings)
	l.X, l.Y = bo.X-1, bo.Y
	g.lasers[l.ID] = l
	g.mu.Unlock()

	g.update()

	g.mu.Lock()
	score := bo.Score
	respawning := bo.Respawning
	_, alive := g.lasers[l.ID]
	g.mu.Unlock()
	if score != 300-g.settings.LaserPenalty {
		t.Errorf("score %d after laser hit", score)
	}
	if !respawning {
		t.Error("hit ship should enter respawn")
	}
	if alive {
		t.Error("laser should be consumed by the impact")
	}
	g.Stop()
}
