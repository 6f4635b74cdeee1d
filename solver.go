package main

import "math"

// collision is a transient record of one detected overlap, discarded at the
// end of the tick.
type collision struct {
	first  int32
	second int32

	// Unit normal pointing from first to second.
	normalX float32
	normalY float32

	// How much closer the circles are than their radii allow.
	penetration float32
}

// checkCollision runs the narrow-phase test for one candidate pair and
// appends a record on overlap. Squared distances keep the non-overlapping
// common case free of square roots.
func (e *Engine) checkCollision(i, j int32, result *[]collision) {
	radii := e.circles.radius[i] + e.circles.radius[j]
	radiiSquared := radii * radii

	deltaX := e.circles.posX[j] - e.circles.posX[i]
	deltaY := e.circles.posY[j] - e.circles.posY[i]
	distanceSquared := deltaX*deltaX + deltaY*deltaY

	if distanceSquared >= radiiSquared {
		return
	}

	distance := float32(math.Sqrt(float64(distanceSquared)))
	normalX, normalY := float32(1), float32(0)
	if distance > 0 {
		normalX = deltaX / distance
		normalY = deltaY / distance
	}

	*result = append(*result, collision{
		first:       i,
		second:      j,
		normalX:     normalX,
		normalY:     normalY,
		penetration: radii - distance,
	})
}

// resolveCollisions applies one serial impulse pass over every per-worker
// collision buffer, then runs the configured number of positional correction
// iterations. Iterations after the first re-run the whole broad and narrow
// phases so newly uncovered contacts are found and resolved ones are dropped.
// Impulses are not recomputed for contacts found mid-correction; that trade
// keeps the correction loop cheap.
func (e *Engine) resolveCollisions() {
	for b := range e.collisions {
		for c := range e.collisions[b] {
			e.correctVelocities(&e.collisions[b][c])
		}
	}

	for iteration := 0; iteration < e.config.CorrectionIterations; iteration++ {
		if iteration > 0 {
			e.detectCollisions()
		}
		for b := range e.collisions {
			for c := range e.collisions[b] {
				e.correctPositions(&e.collisions[b][c])
			}
		}
	}
}

// correctVelocities applies the restitution impulse for one contact.
func (e *Engine) correctVelocities(c *collision) {
	i, j := c.first, c.second

	relativeX := e.circles.velX[j] - e.circles.velX[i]
	relativeY := e.circles.velY[j] - e.circles.velY[i]

	velocityAlongNormal := relativeX*c.normalX + relativeY*c.normalY
	if velocityAlongNormal > 0 {
		// Already separating.
		return
	}

	firstInverseMass := e.circles.invMass[i]
	secondInverseMass := e.circles.invMass[j]
	totalInverseMass := firstInverseMass + secondInverseMass
	if totalInverseMass == 0 {
		return
	}

	impulse := -(1 + e.config.Restitution) * velocityAlongNormal / totalInverseMass
	impulseX := c.normalX * impulse
	impulseY := c.normalY * impulse

	e.circles.velX[i] -= impulseX * firstInverseMass
	e.circles.velY[i] -= impulseY * firstInverseMass
	e.circles.velX[j] += impulseX * secondInverseMass
	e.circles.velY[j] += impulseY * secondInverseMass
}

// correctPositions pushes one contact's circles apart along the collision
// normal, splitting the displacement by inverse mass. Each axis is handled
// independently: if the split would push a circle through a wall, the entire
// correction moves to the other circle instead. Walls win; a circle can never
// leave the container through positional correction.
func (e *Engine) correctPositions(c *collision) {
	i, j := c.first, c.second

	firstInverseMass := e.circles.invMass[i]
	secondInverseMass := e.circles.invMass[j]
	totalInverseMass := firstInverseMass + secondInverseMass
	if totalInverseMass <= 0 {
		// Both circles immovable.
		return
	}

	correctionX := c.normalX * (c.penetration / totalInverseMass)
	correctionY := c.normalY * (c.penetration / totalInverseMass)

	e.correctAxis(e.circles.posX, i, j, correctionX,
		firstInverseMass, secondInverseMass, totalInverseMass, e.worldBoundX)
	e.correctAxis(e.circles.posY, i, j, correctionY,
		firstInverseMass, secondInverseMass, totalInverseMass, e.worldBoundY)
}

// correctAxis applies one axis of a positional correction against the wall
// constraint for that axis. The first circle moves against the correction and
// the second along it; whichever side a circle would breach decides where the
// full correction lands.
func (e *Engine) correctAxis(positions []float32, i, j int32, correction, firstInverseMass, secondInverseMass, totalInverseMass, bound float32) {
	if correction == 0 {
		return
	}

	firstRadius := e.circles.radius[i]
	secondRadius := e.circles.radius[j]

	firstPosition := positions[i] - correction*firstInverseMass
	secondPosition := positions[j] + correction*secondInverseMass

	if correction > 0 {
		if firstPosition-firstRadius < -bound {
			// First is pinned against the negative wall; push only second.
			positions[j] += correction * totalInverseMass
			return
		}
		if secondPosition+secondRadius > bound {
			// Second is pinned against the positive wall; push only first.
			positions[i] -= correction * totalInverseMass
			return
		}
	} else {
		if firstPosition+firstRadius > bound {
			positions[j] += correction * totalInverseMass
			return
		}
		if secondPosition-secondRadius < -bound {
			positions[i] -= correction * totalInverseMass
			return
		}
	}

	positions[i] = firstPosition
	positions[j] = secondPosition
}
