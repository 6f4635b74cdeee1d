package main

import (
	"math/rand"
	"time"
)

// spawner introduces new circles over simulation time, bounded by a spawn rate
// and a hard limit. It owns the simulation's only random source.
type spawner struct {
	rng *rand.Rand

	minRadius float32
	maxRadius float32

	spawnLimit int

	// Circles per simulation second; zero spawns straight up to the limit.
	spawnRate float64

	// With gravity pulling down, circles drop in from the ceiling so
	// something visibly happens; otherwise they appear anywhere.
	dropFromCeiling bool

	// Horizontal spawn half-extent, 90% of the initial aspect ratio.
	halfWidth float32

	initialWindowHeight float32
}

// newSpawner builds a spawner from the engine config. A zero seed takes the
// seed from the clock; tests inject a fixed one.
func newSpawner(config Config) *spawner {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &spawner{
		rng:                 rand.New(rand.NewSource(seed)),
		minRadius:           config.MinRadius,
		maxRadius:           config.MaxRadius,
		spawnLimit:          config.SpawnLimit,
		spawnRate:           config.SpawnRate,
		dropFromCeiling:     config.Gravity > 0,
		halfWidth:           config.InitialAspectRatio * spawnMargin,
		initialWindowHeight: config.InitialWindowHeight,
	}
}

// maybeSpawn appends circles until the store has caught up with the spawn
// target for the given simulation time.
func (s *spawner) maybeSpawn(circles *circleData, simulationTime float64) {
	target := s.spawnLimit
	if s.spawnRate > 0 {
		target = int(s.spawnRate * simulationTime)
		if target > s.spawnLimit {
			target = s.spawnLimit
		}
	}
	for circles.count() < target {
		s.spawnOne(circles)
	}
}

// spawnOne appends a single randomised circle.
func (s *spawner) spawnOne(circles *circleData) {
	radius := s.uniform(s.minRadius, s.maxRadius)

	// Density 1; pi is dropped since only mass ratios matter here.
	mass := radius * radius
	var inverseMass float32
	if mass != 0 {
		inverseMass = 1 / mass
	}

	x := s.uniform(-s.halfWidth, s.halfWidth)
	y := float32(1.0)
	if !s.dropFromCeiling {
		y = s.uniform(-spawnMargin, spawnMargin)
	}

	circles.add(
		x, y,
		s.uniform(-1, 1), s.uniform(-1, 1),
		inverseMass,
		radius,
		s.uniform(spawnColorMin, spawnColorMax),
		s.uniform(spawnColorMin, spawnColorMax),
		s.uniform(spawnColorMin, spawnColorMax),
		2/radius/s.initialWindowHeight,
	)
}

// uniform draws from [low, high).
func (s *spawner) uniform(low, high float32) float32 {
	return low + (high-low)*s.rng.Float32()
}
