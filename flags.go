package main

import "flag"

// Command-line flags covering the window, the spawner, and the solver. Radii
// and window dimensions are given in pixels and normalised before they reach
// the engine.
var (
	windowWidthFlag  = flag.Int("width", defaultWindowWidth, "initial window width in pixels")
	windowHeightFlag = flag.Int("height", defaultWindowHeight, "initial window height in pixels")

	minRadiusFlag = flag.Float64("min-radius", defaultMinRadius, "smallest spawned circle radius in pixels")
	maxRadiusFlag = flag.Float64("max-radius", defaultMaxRadius, "largest spawned circle radius in pixels")

	spawnLimitFlag = flag.Int("spawn-limit", defaultSpawnLimit, "maximum number of circles")

	// spawnRateFlag throttles spawning to circles per simulation second; zero
	// spawns everything on the first tick.
	spawnRateFlag = flag.Float64("spawn-rate", defaultSpawnRate, "circles spawned per simulation second (0 = all at once)")

	gravityFlag     = flag.Float64("gravity", defaultGravity, "downward acceleration; circles drop from the ceiling when positive")
	restitutionFlag = flag.Float64("restitution", defaultRestitution, "coefficient of restitution for all collisions (0-1)")

	outlineCirclesFlag = flag.Bool("outline", false, "draw circle outlines instead of filled circles")

	physicsHzFlag = flag.Float64("physics-hz", defaultPhysicsHz, "fixed physics update frequency")

	// scalePhysicsFlag lets the stepper trade physics resolution for frame
	// rate when steps overrun their budget.
	scalePhysicsFlag = flag.Bool("scale-physics", false, "adaptively lower the physics frequency under load")

	correctionIterationsFlag = flag.Int("iterations", defaultCorrectionIterations, "positional correction iterations per step")

	// Benchmark toggles. Neither changes physical results beyond
	// floating-point order of operations.
	noSpatialGridFlag  = flag.Bool("no-spatial-grid", false, "disable the broad-phase grid and test all pairs")
	singleThreadedFlag = flag.Bool("single-threaded", false, "run the narrow phase on the main goroutine only")

	// openclFlag offloads the narrow phase to an OpenCL device; requires a
	// binary built with -tags opencl.
	openclFlag = flag.Bool("opencl", false, "run the narrow phase on an OpenCL device")

	debugFlag = flag.Bool("debug", false, "log per-second simulation statistics")

	seedFlag = flag.Int64("seed", 0, "spawner random seed (0 = seed from the clock)")

	cpuProfileFlag = flag.String("cpuprofile", "", "write a CPU profile to the given file")
)
