package main

import (
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Phase is the session lifecycle. Ended is terminal.
type Phase int

const (
	PhaseLobby  Phase = 0
	PhaseActive Phase = 1
	PhaseEnded  Phase = 2
)

// End reasons surfaced in game_ended
const (
	EndTimeout       = "timeout"
	EndDisconnection = "disconnection"
	EndDestroyed     = "destroyed" // sudden-death mode only
)

// Broadcaster delivers messages to one participant's connection
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Game holds the state for one two-player match. All mutation, from the
// tick loop to intent handlers and deferred respawn timers, runs under mu.
type Game struct {
	mu       sync.Mutex
	Code     string
	settings Settings

	phase   Phase
	clockMs float64
	tick    uint64

	ships   map[string]*Ship // connection identity -> ship
	clients map[string]Broadcaster
	lasers  map[string]*Laser
	meteors []*Meteor // slot index == meteor id

	// processed marks meteors already scored this life, so duplicate
	// client reports cannot double-score. Cleared on respawn.
	processed map[int]bool

	grid SpatialGrid

	timers      map[int]*time.Timer
	nextTimerID int

	running bool
	stopCh  chan struct{}

	onEnded func(code string) // registry teardown hook
	results *StatsWriter
	metrics *ServerMetrics
}

// NewGame creates a session in the lobby phase with a fresh meteor field
func NewGame(code string, st Settings, results *StatsWriter, metrics *ServerMetrics) *Game {
	g := &Game{
		Code:      code,
		settings:  st,
		phase:     PhaseLobby,
		clockMs:   st.GameDurationMs,
		ships:     make(map[string]*Ship, 2),
		clients:   make(map[string]Broadcaster, 2),
		lasers:    make(map[string]*Laser),
		meteors:   make([]*Meteor, st.MeteorCount),
		processed: make(map[int]bool),
		timers:    make(map[int]*time.Timer),
		stopCh:    make(chan struct{}),
		results:   results,
		metrics:   metrics,
	}
	for i := range g.meteors {
		g.meteors[i] = NewMeteor(i, &st)
	}
	return g
}

// AddShip adds a participant. The first one gets the left side, the
// second the right; a third is rejected.
func (g *Game) AddShip(id, name string) (*Ship, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseLobby || len(g.ships) >= 2 {
		return nil, ErrGameFull
	}
	side := SideLeft
	if len(g.ships) == 1 {
		side = SideRight
	}
	ship := NewShip(id, name, side)
	g.ships[id] = ship
	return ship, nil
}

// SetClient associates a broadcaster with a participant
func (g *Game) SetClient(id string, client Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[id] = client
}

// SetAuth links an authenticated account to a participant
func (g *Game) SetAuth(id string, authPlayerID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.ships[id]; ok {
		s.AuthPlayerID = authPlayerID
	}
}

// ShipCount returns the number of participants
func (g *Game) ShipCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.ships)
}

// Phase returns the current lifecycle phase
func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// HasShip reports whether the identity belongs to this game
func (g *Game) HasShip(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.ships[id]
	return ok
}

// Begin starts the match: broadcasts game_start and launches the tick
// loop. No-op unless the lobby holds exactly two participants.
func (g *Game) Begin() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseLobby || len(g.ships) != 2 {
		return
	}
	g.phase = PhaseActive
	g.clockMs = g.settings.GameDurationMs
	g.broadcastJSONLocked(Envelope{T: MsgStart})
	g.running = true
	go g.run()
	Log.Infow("match started", "game", g.Code)
}

// run is the fixed-rate tick loop
func (g *Game) run() {
	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			g.update()
		case <-g.stopCh:
			return
		}
	}
}

// Stop tears the session down, cancelling the loop and pending timers
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopLocked()
	g.cancelTimersLocked()
}

func (g *Game) stopLocked() {
	if g.running {
		g.running = false
		close(g.stopCh)
	}
}

func (g *Game) cancelTimersLocked() {
	for id, t := range g.timers {
		t.Stop()
		delete(g.timers, id)
	}
}

// afterLocked schedules fn to re-enter the session's serialized
// mutation path after delayMs. Cancelled timers and timers firing
// after the session ended are safe no-ops.
func (g *Game) afterLocked(delayMs float64, fn func()) {
	id := g.nextTimerID
	g.nextTimerID++
	g.timers[id] = time.AfterFunc(time.Duration(delayMs)*time.Millisecond, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if _, ok := g.timers[id]; !ok {
			return
		}
		delete(g.timers, id)
		if g.phase == PhaseEnded {
			return
		}
		fn()
	})
}

// update runs one simulation tick
func (g *Game) update() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseActive {
		return
	}

	const dtMs = 1000.0 / TickRate
	g.tick++

	g.clockMs -= dtMs
	timeUp := g.clockMs <= 0
	if g.clockMs < 0 {
		g.clockMs = 0
	}

	for _, s := range g.ships {
		s.Cooldown(dtMs)
	}

	for id, l := range g.lasers {
		l.Update(dtMs)
		if !l.Alive {
			delete(g.lasers, id)
		}
	}

	for _, m := range g.meteors {
		if m.Stage == StageDestroyed {
			continue // waiting for its respawn timer
		}
		m.Update(dtMs)
		if m.OutOfBounds() {
			m.Respawn(&g.settings)
			delete(g.processed, m.ID)
		}
	}

	ships := make([]*Ship, 0, len(g.ships))
	for _, s := range g.ships {
		ships = append(ships, s)
	}
	lasers := make([]*Laser, 0, len(g.lasers))
	for _, l := range g.lasers {
		lasers = append(lasers, l)
	}
	for _, ev := range detectCollisions(ships, lasers, g.meteors, &g.grid) {
		g.applyCollisionLocked(ev)
	}

	g.broadcastStateLocked()
	if g.metrics != nil {
		g.metrics.IncTick()
	}

	// The final snapshot above still went out on the closing tick
	if timeUp && g.phase == PhaseActive {
		g.endLocked(EndTimeout, g.leaderLocked())
	}
}

// applyCollisionLocked turns one detected overlap into state effects.
// Every branch is idempotent: re-applying the same event is a no-op.
func (g *Game) applyCollisionLocked(ev collisionEvent) {
	st := &g.settings
	switch ev.kind {
	case hitShipMeteor:
		s, m := ev.ship, ev.meteor
		if s.Respawning || m.Stage == StageDestroyed || g.processed[m.ID] {
			return
		}
		if st.Mode == ModeSuddenDeath {
			m.Destroy()
			g.endLocked(EndDestroyed, g.otherShipLocked(s))
			return
		}
		s.Penalize(st.MeteorPenalty)
		s.BeginRespawn()
		g.afterLocked(st.SpawnDelayMs, func() { s.FinishRespawn() })
		m.Destroy()
		g.processed[m.ID] = true
		g.scheduleMeteorRespawnLocked(m)
		g.broadcastScoreLocked()

	case hitLaserMeteor:
		l, m := ev.laser, ev.meteor
		if !l.Alive || m.Stage == StageDestroyed || g.processed[m.ID] {
			return
		}
		l.Alive = false
		delete(g.lasers, l.ID)
		destroyed := m.Hit(st)
		if shooter := g.shipBySideLocked(l.Owner); shooter != nil {
			shooter.Award(st.MeteorScore)
		}
		if destroyed {
			g.processed[m.ID] = true
			g.scheduleMeteorRespawnLocked(m)
		}
		g.broadcastScoreLocked()

	case hitLaserShip:
		l, s := ev.laser, ev.ship
		if !l.Alive || s.Respawning || s.Side == l.Owner {
			return
		}
		l.Alive = false
		delete(g.lasers, l.ID)
		s.Penalize(st.LaserPenalty)
		s.BeginRespawn()
		g.afterLocked(st.SpawnDelayMs, func() { s.FinishRespawn() })
		g.broadcastScoreLocked()
	}
}

func (g *Game) scheduleMeteorRespawnLocked(m *Meteor) {
	g.afterLocked(g.settings.DestroyDelayMs, func() {
		m.Respawn(&g.settings)
		delete(g.processed, m.ID)
	})
}

// HandleMove applies a move intent. Moves while respawning or outside
// the active phase are dropped without touching state.
func (g *Game) HandleMove(id string, y float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseActive {
		return
	}
	if s, ok := g.ships[id]; ok {
		s.MoveTo(y)
	}
}

// HandleFire applies a fire intent. Silent no-op while cooling down or
// respawning; returns the created laser otherwise.
func (g *Game) HandleFire(id string) *Laser {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseActive {
		return nil
	}
	s, ok := g.ships[id]
	if !ok || !s.CanFire() || len(g.lasers) >= g.settings.LaserMax {
		return nil
	}
	l := NewLaser(s, &g.settings)
	g.lasers[l.ID] = l
	s.FireCD = g.settings.LaserIntervalMs
	return l
}

// HandleMeteorOut recycles a meteor the client reported off-screen
func (g *Game) HandleMeteorOut(meteorID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseActive {
		return ErrStateConflict
	}
	m := g.meteorByIDLocked(meteorID)
	if m == nil || m.Stage == StageDestroyed {
		return ErrStateConflict
	}
	m.Respawn(&g.settings)
	delete(g.processed, meteorID)
	return nil
}

// HandleLaserMeteorReport applies a client-reported laser-meteor hit.
// The server usually resolves the same impact itself first and retires
// the laser, so an unknown laser id means a duplicate report.
func (g *Game) HandleLaserMeteorReport(laserID string, meteorID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseActive {
		return ErrStateConflict
	}
	m := g.meteorByIDLocked(meteorID)
	if m == nil || m.Stage == StageDestroyed || g.processed[meteorID] {
		return ErrStateConflict
	}
	l, ok := g.lasers[laserID]
	if !ok || !l.Alive {
		return ErrStateConflict
	}
	g.applyCollisionLocked(collisionEvent{kind: hitLaserMeteor, laser: l, meteor: m})
	return nil
}

// HandleMeteorShipReport applies a client-reported meteor impact on the
// reporting participant's own ship
func (g *Game) HandleMeteorShipReport(id string, meteorID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseActive {
		return ErrStateConflict
	}
	s, ok := g.ships[id]
	if !ok {
		return ErrGameNotFound
	}
	m := g.meteorByIDLocked(meteorID)
	if m == nil || m.Stage == StageDestroyed || g.processed[meteorID] || s.Respawning {
		return ErrStateConflict
	}
	g.applyCollisionLocked(collisionEvent{kind: hitShipMeteor, ship: s, meteor: m})
	return nil
}

// Leave removes a participant. Dropping below two mid-match ends the
// game in favor of whoever stayed. Returns the remaining count.
func (g *Game) Leave(id string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.ships[id]; !ok {
		return len(g.ships)
	}
	delete(g.ships, id)
	delete(g.clients, id)
	if g.phase == PhaseActive && len(g.ships) < 2 {
		var remaining *Ship
		for _, s := range g.ships {
			remaining = s
		}
		g.endLocked(EndDisconnection, remaining)
	}
	return len(g.ships)
}

// endLocked transitions to Ended exactly once: final broadcast, stat
// recording, timer cancellation, loop shutdown, registry removal.
func (g *Game) endLocked(reason string, winner *Ship) {
	if g.phase == PhaseEnded {
		return
	}
	g.phase = PhaseEnded

	left, right := g.sideScoresLocked()
	msg := GameEndedMsg{Reason: reason, ScoreLeft: left, ScoreRight: right}
	if winner != nil {
		msg.Winner = winner.Name
	}
	g.broadcastJSONLocked(Envelope{T: MsgEnded, Data: msg})

	if g.results != nil {
		for _, s := range g.ships {
			if s.AuthPlayerID == 0 {
				continue
			}
			switch {
			case winner == nil:
				g.results.Record(s.AuthPlayerID, ResultDraw)
			case s == winner:
				g.results.Record(s.AuthPlayerID, ResultWin)
			default:
				g.results.Record(s.AuthPlayerID, ResultLoss)
			}
		}
	}

	g.cancelTimersLocked()
	g.stopLocked()
	Log.Infow("match ended", "game", g.Code, "reason", reason, "winner", msg.Winner)
	// Registry removal happens off the session lock; lock order is
	// always registry -> game, never the reverse.
	if g.onEnded != nil {
		go g.onEnded(g.Code)
	}
}

// leaderLocked returns the higher-scoring ship, or nil on a draw
func (g *Game) leaderLocked() *Ship {
	var best *Ship
	tied := false
	for _, s := range g.ships {
		if best == nil || s.Score > best.Score {
			best = s
			tied = false
		} else if s.Score == best.Score {
			tied = true
		}
	}
	if tied {
		return nil
	}
	return best
}

func (g *Game) otherShipLocked(s *Ship) *Ship {
	for _, o := range g.ships {
		if o != s {
			return o
		}
	}
	return nil
}

func (g *Game) shipBySideLocked(side Side) *Ship {
	for _, s := range g.ships {
		if s.Side == side {
			return s
		}
	}
	return nil
}

func (g *Game) meteorByIDLocked(id int) *Meteor {
	if id < 0 || id >= len(g.meteors) {
		return nil
	}
	return g.meteors[id]
}

func (g *Game) sideScoresLocked() (left, right int) {
	if s := g.shipBySideLocked(SideLeft); s != nil {
		left = s.Score
	}
	if s := g.shipBySideLocked(SideRight); s != nil {
		right = s.Score
	}
	return
}

func (g *Game) broadcastScoreLocked() {
	left, right := g.sideScoresLocked()
	g.broadcastJSONLocked(Envelope{T: MsgScore, Data: ScoreUpdateMsg{Left: left, Right: right}})
}

// broadcastStateLocked sends the full snapshot as a msgpack binary frame
func (g *Game) broadcastStateLocked() {
	snap := Snapshot{
		Tick:    g.tick,
		ClockMs: g.clockMs,
		Ships:   make([]ShipState, 0, len(g.ships)),
		Meteors: make([]MeteorState, 0, len(g.meteors)),
		Lasers:  make([]LaserState, 0, len(g.lasers)),
	}
	for _, s := range g.ships {
		snap.Ships = append(snap.Ships, s.ToState())
	}
	for _, m := range g.meteors {
		snap.Meteors = append(snap.Meteors, m.ToState())
	}
	for _, l := range g.lasers {
		snap.Lasers = append(snap.Lasers, l.ToState())
	}

	data, err := msgpack.Marshal(&snap)
	if err != nil {
		Log.Errorw("snapshot marshal failed", "game", g.Code, "err", err)
		return
	}
	for _, c := range g.clients {
		c.SendBinary(data)
	}
	if g.metrics != nil {
		g.metrics.AddBroadcast(len(data) * len(g.clients))
	}
}

func (g *Game) broadcastJSONLocked(env Envelope) {
	for _, c := range g.clients {
		c.SendJSON(env)
	}
}

// broadcastJSON sends a JSON envelope to all participants
func (g *Game) broadcastJSON(env Envelope) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.broadcastJSONLocked(env)
}

// BroadcastExcept sends to every participant but the given identity
func (g *Game) BroadcastExcept(id string, env Envelope) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for cid, c := range g.clients {
		if cid != id {
			c.SendJSON(env)
		}
	}
}
