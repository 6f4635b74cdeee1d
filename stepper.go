package main

import "time"

// stepper drives the engine at a fixed timestep. Frame time is accumulated
// and consumed in whole ticks; whatever remains becomes the interpolation
// factor the renderer uses to draw between the previous and current tick.
//
// With scaling enabled the stepper trades physics resolution for frame rate:
// a step that overruns its budget lowers the frequency one hertz, a step that
// finishes in under half its budget raises it back toward the configured rate.
type stepper struct {
	engine *Engine

	configuredFrequency float64
	actualFrequency     float64
	fixedTimeStep       float64

	scalePhysics bool

	accumulator    float64
	simulationTime float64

	// Running counters for the per-second stats report, reset by the host.
	stepCount       int
	stepTime        time.Duration
	collisionChecks int

	// Injected for tests; time.Now in production.
	now func() time.Time
}

// newStepper wires a stepper to an engine at the given physics frequency.
func newStepper(engine *Engine, physicsFrequency float64, scalePhysics bool) *stepper {
	return &stepper{
		engine:              engine,
		configuredFrequency: physicsFrequency,
		actualFrequency:     physicsFrequency,
		fixedTimeStep:       1 / physicsFrequency,
		scalePhysics:        scalePhysics,
		now:                 time.Now,
	}
}

// advance feeds one frame's elapsed wall-clock time to the accumulator and
// runs as many fixed steps as fit. Frame time is capped so a long stall
// cannot trigger a spiral of death.
func (s *stepper) advance(frameTime float64) {
	if frameTime > maxFrameTime {
		frameTime = maxFrameTime
	}
	s.accumulator += frameTime
	s.simulationTime += frameTime

	for s.accumulator >= s.fixedTimeStep {
		before := s.now()
		s.collisionChecks += s.engine.step(s.simulationTime, s.fixedTimeStep)
		stepTime := s.now().Sub(before)
		s.stepTime += stepTime
		s.stepCount++

		if s.scalePhysics {
			stepSeconds := stepTime.Seconds()
			if s.actualFrequency > minPhysicsHz && stepSeconds > s.fixedTimeStep {
				// Draw down physics resolution to keep the frame rate up.
				s.actualFrequency--
				s.fixedTimeStep = 1 / s.actualFrequency
			} else if s.actualFrequency < s.configuredFrequency && stepSeconds < s.fixedTimeStep/2 {
				s.actualFrequency++
				s.fixedTimeStep = 1 / s.actualFrequency
			}
		}

		s.accumulator -= s.fixedTimeStep
	}
}

// alpha returns the interpolation factor in [0, 1): how far the unconsumed
// accumulator has advanced into the next tick.
func (s *stepper) alpha() float64 {
	return s.accumulator / s.fixedTimeStep
}

// resetStats clears the running counters after a stats report.
func (s *stepper) resetStats() {
	s.stepCount = 0
	s.stepTime = 0
	s.collisionChecks = 0
}
