//go:build opencl

package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// The device kernel must agree with the CPU narrow test: same collisions,
// same normals, same penetration depths.
func TestOpenCLNarrowPhaseMatchesCPU(t *testing.T) {
	gpu, err := newOpenCLNarrowPhase(16)
	if err != nil {
		t.Skipf("no usable OpenCL device: %v", err)
	}
	defer gpu.Close()

	engine := newTestEngine(t, testConfig())
	engine.setWorldBounds(1, 1)
	addTestCircle(engine, 0, 0, 0, 0, 0.05, 1)
	addTestCircle(engine, 0.07, 0, 0, 0, 0.05, 1) // overlaps the first
	addTestCircle(engine, 0.5, 0.5, 0, 0, 0.05, 1)
	addTestCircle(engine, 0.05, 0, 0, 0, 0.05, 1) // deeper overlap with the first

	pairs := [][2]int32{{0, 1}, {0, 2}, {1, 2}, {0, 3}}

	var cpu []collision
	for _, pair := range pairs {
		engine.checkCollision(pair[0], pair[1], &cpu)
	}
	require.NotEmpty(t, cpu)

	var device []collision
	require.NoError(t, gpu.detect(engine.circles, pairs, &device))

	require.Len(t, device, len(cpu))

	// Atomic compaction leaves the device order unspecified; match records
	// by pair.
	byPair := make(map[[2]int32]collision, len(device))
	for _, c := range device {
		byPair[[2]int32{c.first, c.second}] = c
	}
	for _, want := range cpu {
		got, ok := byPair[[2]int32{want.first, want.second}]
		require.True(t, ok, "pair (%d, %d) missing from device results", want.first, want.second)
		require.InDelta(t, want.normalX, got.normalX, 1e-6)
		require.InDelta(t, want.normalY, got.normalY, 1e-6)
		require.InDelta(t, want.penetration, got.penetration, 1e-6)
	}
}
