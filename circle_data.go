package main

// circleData stores one column per circle attribute. The solver's hot loops
// index the position, velocity, radius, and mass columns directly, and the
// renderer streams the position, previous-position, color, and size columns
// without any per-circle indirection.
//
// Columns only ever grow; a slot index handed out by add stays valid for the
// lifetime of the simulation. Capacity is reserved up front so appends never
// reallocate and never invalidate a borrowed column view.
type circleData struct {
	posX  []float32
	posY  []float32
	prevX []float32
	prevY []float32

	velX []float32
	velY []float32

	radius []float32

	// 0 means infinite mass; such a circle is never moved by other circles.
	invMass []float32

	red   []float32
	green []float32
	blue  []float32

	// Stroke width hint for outlined rendering, derived once at spawn.
	outlineWidth []float32
}

// newCircleData allocates a store with every column reserved to capacity.
func newCircleData(capacity int) *circleData {
	return &circleData{
		posX:         make([]float32, 0, capacity),
		posY:         make([]float32, 0, capacity),
		prevX:        make([]float32, 0, capacity),
		prevY:        make([]float32, 0, capacity),
		velX:         make([]float32, 0, capacity),
		velY:         make([]float32, 0, capacity),
		radius:       make([]float32, 0, capacity),
		invMass:      make([]float32, 0, capacity),
		red:          make([]float32, 0, capacity),
		green:        make([]float32, 0, capacity),
		blue:         make([]float32, 0, capacity),
		outlineWidth: make([]float32, 0, capacity),
	}
}

// count returns the number of live circles.
func (d *circleData) count() int {
	return len(d.posX)
}

// add appends a circle to every column and returns its slot index. The
// previous position starts equal to the current one so the first interpolated
// frame does not sweep the circle in from the origin.
func (d *circleData) add(x, y, vx, vy, invMass, radius, red, green, blue, outlineWidth float32) int {
	d.posX = append(d.posX, x)
	d.posY = append(d.posY, y)
	d.prevX = append(d.prevX, x)
	d.prevY = append(d.prevY, y)
	d.velX = append(d.velX, vx)
	d.velY = append(d.velY, vy)
	d.radius = append(d.radius, radius)
	d.invMass = append(d.invMass, invMass)
	d.red = append(d.red, red)
	d.green = append(d.green, green)
	d.blue = append(d.blue, blue)
	d.outlineWidth = append(d.outlineWidth, outlineWidth)
	return len(d.posX) - 1
}

// rememberPositions freezes the current positions into the previous-position
// columns. Must run before anything mutates positions within a tick.
func (d *circleData) rememberPositions() {
	copy(d.prevX, d.posX)
	copy(d.prevY, d.posY)
}
