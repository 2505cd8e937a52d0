package main

import "sync"

// MatchOutcome is one participant's result in a finished match
type MatchOutcome int

const (
	ResultDraw MatchOutcome = 0
	ResultWin  MatchOutcome = 1
	ResultLoss MatchOutcome = 2
)

type statUpdate struct {
	playerID int64
	outcome  MatchOutcome
}

// StatsWriter applies aggregate stat updates to the database from a
// background goroutine so the tick loop never blocks on SQLite.
type StatsWriter struct {
	db      *DB
	updates chan statUpdate
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewStatsWriter creates and starts the background writer
func NewStatsWriter(db *DB) *StatsWriter {
	w := &StatsWriter{
		db:      db,
		updates: make(chan statUpdate, 256),
		stop:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

// Record enqueues an outcome for async persistence (non-blocking)
func (w *StatsWriter) Record(playerID int64, outcome MatchOutcome) {
	select {
	case w.updates <- statUpdate{playerID: playerID, outcome: outcome}:
	default:
		// Queue full, drop the update rather than stall a session
		Log.Warnw("stats queue full, dropping update", "player", playerID)
	}
}

func (w *StatsWriter) run() {
	defer w.wg.Done()
	for {
		select {
		case u := <-w.updates:
			if err := w.db.RecordResult(u.playerID, u.outcome); err != nil {
				Log.Errorw("stat update failed", "player", u.playerID, "err", err)
			}
		case <-w.stop:
			// Drain whatever is already queued
			for {
				select {
				case u := <-w.updates:
					if err := w.db.RecordResult(u.playerID, u.outcome); err != nil {
						Log.Errorw("stat update failed", "player", u.playerID, "err", err)
					}
				default:
					return
				}
			}
		}
	}
}

// Stop flushes pending updates and shuts the writer down
func (w *StatsWriter) Stop() {
	close(w.stop)
	w.wg.Wait()
}
