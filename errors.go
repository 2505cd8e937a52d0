package main

import "errors"

// Intent-level failures. All are recoverable: they are reported to the
// offending connection only and never abort a tick or another session.
var (
	ErrInvalidName   = errors.New("username must be a non-empty string")
	ErrGameNotFound  = errors.New("game not found")
	ErrGameFull      = errors.New("game is full")
	ErrTooManyGames  = errors.New("too many active games")
	ErrStateConflict = errors.New("stale or duplicate game event")
)
