package main

import (
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Game hosts the engine inside the Ebiten loop: it feeds real frame time to
// the stepper, keeps the world bounds in sync with the window, and renders
// every circle interpolated between its previous and current tick positions.
type Game struct {
	engine  *Engine
	stepper *stepper

	initialWindowHeight int

	// Current window size, updated by Layout.
	windowWidth  int
	windowHeight int

	outlineCircles bool

	lastFrame time.Time

	// Per-second stats.
	lastReport time.Time
	frameCount int

	renderer *circleRenderer
}

// newGame wires the host to an engine and prepares the renderer.
func newGame(engine *Engine, stepper *stepper, windowWidth, windowHeight int, outlineCircles bool) (*Game, error) {
	renderer, err := newCircleRenderer(engine.config.SpawnLimit)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Game{
		engine:              engine,
		stepper:             stepper,
		initialWindowHeight: windowHeight,
		windowWidth:         windowWidth,
		windowHeight:        windowHeight,
		outlineCircles:      outlineCircles,
		lastFrame:           now,
		lastReport:          now,
		renderer:            renderer,
	}, nil
}

// Update runs the physics for one frame of wall-clock time.
func (g *Game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	now := time.Now()
	frameTime := now.Sub(g.lastFrame).Seconds()
	g.lastFrame = now

	// World bounds follow the window: height stays 2 world units at the
	// initial size, width follows the aspect ratio, and resizing scales both.
	scale := float32(g.windowHeight) / float32(g.initialWindowHeight)
	aspectRatio := float32(g.windowWidth) / float32(g.windowHeight)
	g.engine.setWorldBounds(scale*aspectRatio, scale)

	g.stepper.advance(frameTime)

	g.frameCount++
	if *debugFlag && now.Sub(g.lastReport).Seconds() >= statsReportInterval {
		g.reportStats(now)
	}

	return nil
}

// Draw renders all circles at lerp(previous, current, alpha).
func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.draw(screen, g.engine, float32(g.stepper.alpha()), g.outlineCircles)
}

// Layout tracks the window size; the render target matches it one-to-one.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 {
		g.windowWidth = outsideWidth
		g.windowHeight = outsideHeight
	}
	return g.windowWidth, g.windowHeight
}

// reportStats logs the once-a-second summary and resets the counters.
func (g *Game) reportStats(now time.Time) {
	elapsed := now.Sub(g.lastReport).Seconds()
	fps := float64(g.frameCount) / elapsed

	log.Printf("circle count: %d", g.engine.circleData().count())
	log.Printf("average FPS: %.1f", fps)
	log.Printf("physics frequency: %.0f Hz (%.2f ms)",
		g.stepper.actualFrequency, g.stepper.fixedTimeStep*1000)
	if g.stepper.stepCount > 0 {
		averageStepTime := g.stepper.stepTime.Seconds() / float64(g.stepper.stepCount)
		log.Printf("average step time: %.2f ms", averageStepTime*1000)
		log.Printf("average collision checks: %d", g.stepper.collisionChecks/g.stepper.stepCount)
	}

	g.frameCount = 0
	g.lastReport = now
	g.stepper.resetStats()
}
