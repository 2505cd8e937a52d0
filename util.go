package main

import (
	"crypto/rand"
	"encoding/hex"
	"math"
	mathrand "math/rand/v2"
)

// GenerateID returns a random hex string of the given byte length
func GenerateID(byteLen int) string {
	b := make([]byte, byteLen)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// round1 rounds to one decimal place to keep snapshots compact
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// randFloat returns a random float64 in [0, 1). The math/rand/v2
// top-level source is goroutine-safe, so concurrent sessions draw
// from it without coordination.
func randFloat() float64 {
	return mathrand.Float64()
}

// randRange returns a random float64 in [min, max)
func randRange(min, max float64) float64 {
	return min + mathrand.Float64()*(max-min)
}
