package main

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// clusterConfig packs enough circles into one spot that the candidate pair
// count clears the parallel dispatch threshold.
func clusterConfig() Config {
	config := testConfig()
	config.MinRadius = 0.005
	config.MaxRadius = 0.01
	config.SpawnLimit = 256
	config.CorrectionIterations = 1
	return config
}

// addCluster drops circles on a tight deterministic lattice near the origin.
func addCluster(e *Engine, count int) {
	for i := 0; i < count; i++ {
		x := float32(i%16)*0.004 - 0.03
		y := float32(i/16)*0.004 - 0.03
		addTestCircle(e, x, y, 0, 0, 0.01, 1)
	}
}

// collisionKeys flattens every per-worker buffer into a sortable pair list.
func collisionKeys(e *Engine) []int64 {
	var keys []int64
	for _, buffer := range e.collisions {
		for _, c := range buffer {
			keys = append(keys, int64(c.first)<<32|int64(c.second))
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// The parallel narrow phase must find exactly the collisions the serial one
// finds.
func TestParallelNarrowPhaseMatchesSerial(t *testing.T) {
	parallel := newTestEngine(t, clusterConfig())
	parallel.setWorldBounds(1, 1)
	addCluster(parallel, 180)

	serial := newTestEngine(t, clusterConfig())
	serial.setWorldBounds(1, 1)
	serial.setSingleThreaded(true)
	addCluster(serial, 180)

	parallel.detectCollisions()
	serial.detectCollisions()

	// The cluster has to be dense enough to actually exercise dispatch.
	require.GreaterOrEqual(t, len(parallel.pairs), parallelPairThreshold)

	require.Equal(t, collisionKeys(serial), collisionKeys(parallel))
}

// Dispatch must leave the pool reusable: several ticks in a row complete
// without stalling and shutdown joins cleanly.
func TestWorkerPoolSurvivesRepeatedDispatch(t *testing.T) {
	engine := newTestEngine(t, clusterConfig())
	engine.setWorldBounds(1, 1)
	addCluster(engine, 180)

	first := engine.step(0, 1.0/60)
	require.Positive(t, first)
	for i := 0; i < 5; i++ {
		engine.step(0, 1.0/60)
	}
}

// Below the dispatch threshold everything lands in the serial buffer.
func TestSmallBatchesRunSerially(t *testing.T) {
	engine := newTestEngine(t, clusterConfig())
	engine.setWorldBounds(1, 1)
	addTestCircle(engine, 0, 0, 0, 0, 0.01, 1)
	addTestCircle(engine, 0.005, 0, 0, 0, 0.01, 1)

	engine.detectCollisions()

	require.Less(t, len(engine.pairs), parallelPairThreshold)
	require.NotEmpty(t, engine.collisions[0])
	for _, buffer := range engine.collisions[1:] {
		require.Empty(t, buffer)
	}
}
