package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	flag.Parse()

	windowWidth := *windowWidthFlag
	windowHeight := *windowHeightFlag
	minRadius := *minRadiusFlag
	maxRadius := *maxRadiusFlag
	spawnLimit := *spawnLimitFlag

	// Nonsense values fall back to something watchable rather than aborting.
	if windowWidth <= 0 {
		windowWidth = defaultWindowWidth
	}
	if windowHeight <= 0 {
		windowHeight = defaultWindowHeight
	}
	if minRadius <= 0 {
		minRadius = defaultMinRadius
	}
	if maxRadius < minRadius {
		maxRadius = minRadius * 2
	}
	if spawnLimit <= 0 {
		spawnLimit = defaultSpawnLimit
	}

	log.Printf("starting simulation:")
	log.Printf("window size: %dx%d", windowWidth, windowHeight)
	log.Printf("radius range: %.1f to %.1f", minRadius, maxRadius)
	log.Printf("spawn limit: %d", spawnLimit)
	log.Printf("gravity: %.2f", *gravityFlag)
	log.Printf("restitution: %.2f", *restitutionFlag)
	log.Printf("outlined circles: %t", *outlineCirclesFlag)

	if *cpuProfileFlag != "" {
		stop, err := startCPUProfile(*cpuProfileFlag)
		if err != nil {
			log.Fatalf("CPU profiling failed: %v", err)
		}
		defer stop()
	}

	// The engine works in units normalised by the initial window height: the
	// container is 2 units tall regardless of resolution.
	config := Config{
		MinRadius:            float32(minRadius) / float32(windowHeight),
		MaxRadius:            float32(maxRadius) / float32(windowHeight),
		SpawnLimit:           spawnLimit,
		SpawnRate:            *spawnRateFlag,
		Gravity:              float32(*gravityFlag),
		Restitution:          float32(*restitutionFlag),
		InitialAspectRatio:   float32(windowWidth) / float32(windowHeight),
		InitialWindowHeight:  float32(windowHeight),
		CorrectionIterations: *correctionIterationsFlag,
		Seed:                 *seedFlag,
	}

	engine, err := newEngine(config)
	if err != nil {
		log.Fatalf("engine construction failed: %v", err)
	}
	defer engine.close()
	log.Printf("%d narrow-phase workers", engine.workerCount)

	engine.setUseSpatialPartitioning(!*noSpatialGridFlag)
	engine.setSingleThreaded(*singleThreadedFlag)

	if *openclFlag {
		gpu, err := newOpenCLNarrowPhase(spawnLimit)
		if err != nil {
			log.Fatalf("OpenCL initialization failed: %v", err)
		}
		log.Printf("OpenCL narrow phase enabled (device: %s)", gpu.DeviceName())
		defer gpu.Close()
		engine.setNarrowPhaseSolver(gpu)
	}

	physicsFrequency := *physicsHzFlag
	if physicsFrequency <= 0 {
		physicsFrequency = defaultPhysicsHz
	}
	step := newStepper(engine, physicsFrequency, *scalePhysicsFlag)

	game, err := newGame(engine, step, windowWidth, windowHeight, *outlineCirclesFlag)
	if err != nil {
		log.Fatalf("renderer construction failed: %v", err)
	}

	ebiten.SetWindowSize(windowWidth, windowHeight)
	ebiten.SetWindowTitle(windowTitle)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(game); err != nil {
		log.Fatalf("game loop failed: %v", err)
	}
}
