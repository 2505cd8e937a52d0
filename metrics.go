package main

import "sync/atomic"

// ServerMetrics tracks process-wide counters for the /metrics endpoint
type ServerMetrics struct {
	Ticks          int64
	Intents        int64
	Dropped        int64 // messages dropped on full send buffers
	BroadcastBytes int64
	GamesCreated   int64
	GamesEnded     int64
}

func (m *ServerMetrics) IncTick()        { atomic.AddInt64(&m.Ticks, 1) }
func (m *ServerMetrics) IncIntent()      { atomic.AddInt64(&m.Intents, 1) }
func (m *ServerMetrics) IncDropped()     { atomic.AddInt64(&m.Dropped, 1) }
func (m *ServerMetrics) IncGameCreated() { atomic.AddInt64(&m.GamesCreated, 1) }
func (m *ServerMetrics) IncGameEnded()   { atomic.AddInt64(&m.GamesEnded, 1) }
func (m *ServerMetrics) AddBroadcast(n int) {
	atomic.AddInt64(&m.BroadcastBytes, int64(n))
}

// Snapshot returns a read-only copy for HTTP output
func (m *ServerMetrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"ticks":           atomic.LoadInt64(&m.Ticks),
		"intents":         atomic.LoadInt64(&m.Intents),
		"dropped":         atomic.LoadInt64(&m.Dropped),
		"broadcast_bytes": atomic.LoadInt64(&m.BroadcastBytes),
		"games_created":   atomic.LoadInt64(&m.GamesCreated),
		"games_ended":     atomic.LoadInt64(&m.GamesEnded),
	}
}
