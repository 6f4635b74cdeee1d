package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock makes step timing deterministic: every reading advances the clock
// by a fixed amount, so each step appears to take exactly that long.
type fakeClock struct {
	current time.Time
	advance time.Duration
}

func (c *fakeClock) now() time.Time {
	c.current = c.current.Add(c.advance)
	return c.current
}

func newIdleStepper(t *testing.T, physicsFrequency float64, scalePhysics bool) *stepper {
	t.Helper()
	config := testConfig()
	config.SpawnRate = 1e-9 // effectively never spawns
	engine := newTestEngine(t, config)
	engine.setWorldBounds(1, 1)
	return newStepper(engine, physicsFrequency, scalePhysics)
}

// The interpolation factor grows strictly while the accumulator fills and
// drops by exactly one tick's worth when a step fires.
func TestAlphaGrowsUntilStepFiresThenDropsByOne(t *testing.T) {
	s := newIdleStepper(t, 60, false)
	dt := s.fixedTimeStep

	last := s.alpha()
	require.Zero(t, last)
	for i := 0; i < 3; i++ {
		s.advance(0.2 * dt)
		require.Greater(t, s.alpha(), last)
		last = s.alpha()
	}

	// Next frame pushes the accumulator over one tick: a step fires and
	// alpha wraps down by exactly 1.
	before := s.alpha()
	s.advance(0.6 * dt)
	require.InDelta(t, before+0.6-1, s.alpha(), 1e-9)
	require.Equal(t, 1, s.stepCount)
}

func TestAlphaStaysBelowOne(t *testing.T) {
	s := newIdleStepper(t, 60, false)
	for i := 0; i < 50; i++ {
		s.advance(0.013)
		require.GreaterOrEqual(t, s.alpha(), 0.0)
		require.Less(t, s.alpha(), 1.0)
	}
}

func TestFrameTimeIsClamped(t *testing.T) {
	s := newIdleStepper(t, 60, false)
	s.advance(10)
	require.InDelta(t, maxFrameTime, s.simulationTime, 1e-9)
}

func TestOverrunningStepsLowerTheFrequency(t *testing.T) {
	s := newIdleStepper(t, 60, true)
	// Every step appears to take 20 ms, over the 16.7 ms budget.
	s.now = (&fakeClock{advance: 20 * time.Millisecond}).now

	s.advance(maxFrameTime)

	require.Less(t, s.actualFrequency, 60.0)
	require.GreaterOrEqual(t, s.actualFrequency, minPhysicsHz)
}

func TestThrottlingFloorsAtMinimumFrequency(t *testing.T) {
	s := newIdleStepper(t, 60, true)
	// 200 ms overruns every budget down to the 100 ms of the 10 Hz floor.
	s.now = (&fakeClock{advance: 200 * time.Millisecond}).now

	for i := 0; i < 50; i++ {
		s.advance(maxFrameTime)
	}

	require.Equal(t, minPhysicsHz, s.actualFrequency)
}

func TestFastStepsRestoreTheConfiguredFrequency(t *testing.T) {
	s := newIdleStepper(t, 60, true)
	// Throttled by an earlier load spike.
	s.actualFrequency = 30
	s.fixedTimeStep = 1.0 / 30

	// Instant steps always finish under half the budget.
	s.now = (&fakeClock{}).now

	for i := 0; i < 10; i++ {
		s.advance(maxFrameTime)
	}

	require.Equal(t, 60.0, s.actualFrequency)
}

func TestFrequencyUntouchedWithoutScaling(t *testing.T) {
	s := newIdleStepper(t, 60, false)
	s.now = (&fakeClock{advance: 50 * time.Millisecond}).now

	for i := 0; i < 10; i++ {
		s.advance(maxFrameTime)
	}

	require.Equal(t, 60.0, s.actualFrequency)
}

func TestStatsAccumulateAndReset(t *testing.T) {
	s := newIdleStepper(t, 60, false)
	s.advance(0.1)
	require.Positive(t, s.stepCount)

	s.resetStats()
	require.Zero(t, s.stepCount)
	require.Zero(t, s.stepTime)
	require.Zero(t, s.collisionChecks)
}
