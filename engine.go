package main

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
)

// Config carries the engine's construction parameters. Radii, gravity, and
// positions are in world units: the container height is 2 at the initial
// window size and the width follows the aspect ratio.
type Config struct {
	MinRadius float32
	MaxRadius float32

	SpawnLimit int

	// Circles per simulation second; zero means unlimited.
	SpawnRate float64

	Gravity     float32
	Restitution float32

	InitialAspectRatio  float32
	InitialWindowHeight float32

	CorrectionIterations int

	// Zero seeds the spawner from the clock.
	Seed int64
}

// validate reports the first construction-breaking problem in the config.
func (c Config) validate() error {
	if c.MinRadius <= 0 {
		return errors.New("minimum radius must be positive")
	}
	if c.MaxRadius < c.MinRadius {
		return errors.New("maximum radius must not be smaller than minimum radius")
	}
	if c.SpawnLimit <= 0 {
		return errors.New("spawn limit must be positive")
	}
	if c.SpawnRate < 0 {
		return errors.New("spawn rate must not be negative")
	}
	if c.Restitution < 0 || c.Restitution > 1 {
		return errors.New("restitution must be in [0, 1]")
	}
	if c.InitialAspectRatio <= 0 {
		return errors.New("initial aspect ratio must be positive")
	}
	if c.InitialWindowHeight <= 0 {
		return errors.New("initial window height must be positive")
	}
	if c.CorrectionIterations < 0 {
		return errors.New("correction iterations must not be negative")
	}
	return nil
}

// Engine drives the circle physics simulation: spawning, integration, wall
// reflection, broad and narrow phase collision detection, and the impulse and
// positional correction solver. One Engine owns one fixed pool of narrow-phase
// worker goroutines for its whole lifetime.
type Engine struct {
	config Config

	circles *circleData
	spawner *spawner
	grid    *spatialGrid

	worldBoundX float32
	worldBoundY float32

	// Candidate pairs from the broad phase, reused across ticks.
	pairs [][2]int32

	// One collision buffer per worker; buffer 0 doubles as the serial
	// buffer. Cleared, not freed, every tick.
	collisions [][]collision

	useSpatialPartitioning bool
	singleThreaded         bool

	// Optional OpenCL narrow phase; nil unless enabled at startup.
	gpu *openCLNarrowPhase

	// Worker pool state. Workers block on workerCond waiting for ranges;
	// the main goroutine busy-waits with yields for the queue to drain.
	workerMu       sync.Mutex
	workerCond     *sync.Cond
	workerQueue    []pairRange
	workerActive   int
	workerShutdown bool
	workerCount    int
	workerWG       sync.WaitGroup
}

// newEngine validates the config, reserves all storage up front, and starts
// the narrow-phase worker pool. Callers must close the engine to stop the
// workers.
func newEngine(config Config) (*Engine, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	// Leave one core for the main goroutine.
	workerCount := runtime.NumCPU() - 1
	if workerCount < 1 {
		workerCount = 1
	}

	e := &Engine{
		config:                 config,
		circles:                newCircleData(config.SpawnLimit),
		spawner:                newSpawner(config),
		useSpatialPartitioning: true,
		workerCount:            workerCount,
	}
	// Same bounds as the world. The maximum circle diameter as the cell size
	// means only adjacent cells ever need searching.
	e.grid = newSpatialGrid(config.InitialAspectRatio, 1, config.MaxRadius*2)
	e.worldBoundX = config.InitialAspectRatio
	e.worldBoundY = 1

	e.collisions = make([][]collision, workerCount)
	for i := range e.collisions {
		e.collisions[i] = make([]collision, 0, config.SpawnLimit)
	}

	e.workerCond = sync.NewCond(&e.workerMu)
	e.startWorkers()

	return e, nil
}

// close stops the worker pool and blocks until every worker has exited.
func (e *Engine) close() {
	e.workerMu.Lock()
	e.workerShutdown = true
	e.workerMu.Unlock()
	e.workerCond.Broadcast()
	e.workerWG.Wait()
}

// setWorldBounds updates the container half-extents. The host calls this
// before each step to track the window's aspect ratio.
func (e *Engine) setWorldBounds(worldBoundX, worldBoundY float32) {
	e.worldBoundX = worldBoundX
	e.worldBoundY = worldBoundY
}

// setUseSpatialPartitioning toggles the broad-phase grid; with it off every
// circle pair is narrow-tested. For benchmarking only.
func (e *Engine) setUseSpatialPartitioning(enabled bool) {
	e.useSpatialPartitioning = enabled
}

// setSingleThreaded forces the narrow phase onto the main goroutine.
func (e *Engine) setSingleThreaded(enabled bool) {
	e.singleThreaded = enabled
}

// setNarrowPhaseSolver installs an OpenCL narrow phase. Large candidate
// batches run on the device; the CPU path remains the fallback.
func (e *Engine) setNarrowPhaseSolver(gpu *openCLNarrowPhase) {
	e.gpu = gpu
}

// circleData returns the column views consumed by the renderer. The views
// stay valid for the engine's lifetime; only step mutates them.
func (e *Engine) circleData() *circleData {
	return e.circles
}

// step advances the simulation by one fixed tick and returns the number of
// broad-phase candidate pairs as telemetry.
func (e *Engine) step(simulationTime, deltaTime float64) int {
	e.spawner.maybeSpawn(e.circles, simulationTime)

	// Freeze positions for interpolation before anything moves.
	e.circles.rememberPositions()

	e.integrate(float32(deltaTime))
	e.resolveWallCollisions()
	e.detectCollisions()
	collisionChecks := len(e.pairs)
	e.resolveCollisions()

	return collisionChecks
}

// integrate applies gravity and advances positions with semi-implicit Euler:
// the velocity update lands before the position update uses it.
func (e *Engine) integrate(deltaTime float32) {
	gravityStep := e.config.Gravity * deltaTime
	for i := 0; i < e.circles.count(); i++ {
		if e.circles.invMass[i] > 0 {
			e.circles.velY[i] -= gravityStep
		}
		e.circles.posX[i] += e.circles.velX[i] * deltaTime
		e.circles.posY[i] += e.circles.velY[i] * deltaTime
	}
}

// resolveWallCollisions reflects circles off the container walls, scaling the
// reflected velocity component by the restitution and clamping the position to
// just inside the wall. The axes are independent; a corner hit resolves both
// in the same tick.
func (e *Engine) resolveWallCollisions() {
	for i := 0; i < e.circles.count(); i++ {
		x := e.circles.posX[i]
		y := e.circles.posY[i]
		radius := e.circles.radius[i]

		if x-radius < -e.worldBoundX { // Left wall
			e.circles.velX[i] = -e.circles.velX[i] * e.config.Restitution
			e.circles.posX[i] = -e.worldBoundX + radius
		} else if x+radius > e.worldBoundX { // Right wall
			e.circles.velX[i] = -e.circles.velX[i] * e.config.Restitution
			e.circles.posX[i] = e.worldBoundX - radius
		}
		if y-radius < -e.worldBoundY { // Floor
			e.circles.velY[i] = -e.circles.velY[i] * e.config.Restitution
			e.circles.posY[i] = -e.worldBoundY + radius
		} else if y+radius > e.worldBoundY { // Ceiling
			e.circles.velY[i] = -e.circles.velY[i] * e.config.Restitution
			e.circles.posY[i] = e.worldBoundY - radius
		}
	}
}

// detectCollisions refills the broad-phase grid, enumerates candidate pairs,
// and narrow-tests them into the per-worker collision buffers. Small batches
// are not worth the dispatch overhead and run serially.
func (e *Engine) detectCollisions() {
	for i := range e.collisions {
		e.collisions[i] = e.collisions[i][:0]
	}

	if !e.useSpatialPartitioning {
		// Brute force over all pairs, for comparison runs.
		count := int32(e.circles.count())
		for i := int32(0); i < count; i++ {
			for j := i + 1; j < count; j++ {
				e.checkCollision(i, j, &e.collisions[0])
			}
		}
		return
	}

	e.grid.updateDimensions(e.worldBoundX, e.worldBoundY)
	e.grid.clear()
	for i := 0; i < e.circles.count(); i++ {
		e.grid.insert(int32(i), e.circles.posX[i], e.circles.posY[i])
	}
	e.pairs = e.grid.appendPotentialPairs(e.pairs[:0])

	if e.gpu != nil && len(e.pairs) >= parallelPairThreshold {
		err := e.gpu.detect(e.circles, e.pairs, &e.collisions[0])
		if err == nil {
			return
		}
		log.Printf("OpenCL narrow phase failed, falling back to CPU: %v", err)
		e.gpu = nil
	}

	if e.singleThreaded || len(e.pairs) < parallelPairThreshold {
		for _, pair := range e.pairs {
			e.checkCollision(pair[0], pair[1], &e.collisions[0])
		}
		return
	}

	e.dispatchNarrowPhase()
}
