package main

import (
	"strings"
	"sync"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 4
	maxGames     = 100
	maxNameLen   = 16
)

// Registry maps short room codes to live games. Codes are unique among
// currently-live games only; a code can be reused after its game dies.
type Registry struct {
	mu       sync.RWMutex
	games    map[string]*Game
	settings Settings
	results  *StatsWriter
	metrics  *ServerMetrics
}

// NewRegistry creates an empty registry
func NewRegistry(settings Settings, results *StatsWriter, metrics *ServerMetrics) *Registry {
	return &Registry{
		games:    make(map[string]*Game),
		settings: settings,
		results:  results,
		metrics:  metrics,
	}
}

// generateCode rejection-samples the alphabet until the code is free.
// Caller must hold mu.
func (r *Registry) generateCode() string {
	for {
		b := make([]byte, codeLength)
		for i := range b {
			b[i] = codeAlphabet[int(randFloat()*float64(len(codeAlphabet)))%len(codeAlphabet)]
		}
		code := string(b)
		if _, taken := r.games[code]; !taken {
			return code
		}
	}
}

// CleanName trims and caps a display name; empty names are invalid
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	return name, nil
}

// Create makes a new game with the creator seated on the left
func (r *Registry) Create(identity, username string) (*Game, *Ship, error) {
	username, err := CleanName(username)
	if err != nil {
		return nil, nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.games) >= maxGames {
		return nil, nil, ErrTooManyGames
	}
	code := r.generateCode()
	g := NewGame(code, r.settings, r.results, r.metrics)
	g.onEnded = r.remove
	// Seat the creator before the game is reachable by code, so the
	// left side cannot be stolen by a racing join.
	ship, err := g.AddShip(identity, username)
	if err != nil {
		return nil, nil, err
	}
	r.games[code] = g
	if r.metrics != nil {
		r.metrics.IncGameCreated()
	}
	return g, ship, nil
}

// Get returns the game for a code, or nil
func (r *Registry) Get(code string) *Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.games[code]
}

// Join adds a participant to an existing game as the right side.
// The joiner is seated under the registry lock so a concurrent Cancel
// cannot delete the game between the lookup and the seating.
func (r *Registry) Join(code, identity, username string) (*Game, *Ship, error) {
	username, err := CleanName(username)
	if err != nil {
		return nil, nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	g := r.games[code]
	if g == nil {
		return nil, nil, ErrGameNotFound
	}
	ship, err := g.AddShip(identity, username)
	if err != nil {
		return nil, nil, err
	}
	return g, ship, nil
}

// Cancel removes a game still waiting for an opponent. Active, full
// or unknown games are left alone; a seated joiner keeps the game
// alive even before its start broadcast goes out.
func (r *Registry) Cancel(code string) *Game {
	r.mu.Lock()
	g, ok := r.games[code]
	if !ok || g.Phase() != PhaseLobby || g.ShipCount() == 2 {
		r.mu.Unlock()
		return nil
	}
	delete(r.games, code)
	r.mu.Unlock()
	g.Stop()
	return g
}

// RemoveParticipant finds the game holding the identity (at most one)
// and removes them, tearing the game down when it empties or ends.
func (r *Registry) RemoveParticipant(identity string) {
	r.mu.RLock()
	var g *Game
	for _, cand := range r.games {
		if cand.HasShip(identity) {
			g = cand
			break
		}
	}
	r.mu.RUnlock()
	if g == nil {
		return
	}

	remaining := g.Leave(identity) // ends the match itself if it was active
	if remaining == 0 {
		g.Stop()
		r.remove(g.Code)
	}
}

// remove deletes a registry entry; safe to call twice
func (r *Registry) remove(code string) {
	r.mu.Lock()
	if _, ok := r.games[code]; ok {
		delete(r.games, code)
		if r.metrics != nil {
			r.metrics.IncGameEnded()
		}
	}
	r.mu.Unlock()
}

// Count returns the number of live games
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}
