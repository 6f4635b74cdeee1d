package main

// Default simulation parameters and solver tuning constants. Radius and window
// defaults are in pixels; the engine itself works in world units normalised by
// the initial window height, so the container is [-aspect, aspect] x [-1, 1]
// until the window is resized.
const (
	defaultWindowWidth          = 1920
	defaultWindowHeight         = 1080
	defaultMinRadius            = 10.0
	defaultMaxRadius            = 30.0
	defaultSpawnLimit           = 100000
	defaultGravity              = 98.1
	defaultSpawnRate            = 100.0
	defaultRestitution          = 0.9
	defaultPhysicsHz            = 60.0
	defaultCorrectionIterations = 4

	// Below this many candidate pairs the narrow phase runs on the main
	// goroutine; dispatch overhead would dominate the work.
	parallelPairThreshold = 5000

	// Adaptive stepping never throttles below this frequency.
	minPhysicsHz = 10.0

	// Longest frame delta fed to the accumulator, to avoid the spiral of
	// death when a frame stalls.
	maxFrameTime = 0.25

	// Smallest permitted broad-phase cell.
	minGridCellSize = 0.01

	// Spawned circles keep within this fraction of the initial container so
	// they start away from the walls. With gravity on, only the horizontal
	// position is bounded this way; such circles start at the ceiling.
	spawnMargin = 0.9

	// Color channels are drawn from this range; anything darker disappears
	// against the background.
	spawnColorMin = 0.4
	spawnColorMax = 1.0

	statsReportInterval = 1.0 // seconds

	windowTitle = "Circle Physics"
)
