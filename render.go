package main

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// Each circle is a screen-aligned quad; the fragment shader culls everything
// outside the unit circle, so the quad count is the only geometry that scales
// with the simulation. Index buffers are 16-bit, which caps one draw call at
// this many quads; larger populations flush in batches.
const maxQuadsPerBatch = 16383

// circleShaderSource is the Kage port of the instanced circle shader: the
// quad's corner coordinates arrive in unit-circle space through the custom
// vertex attributes, along with the per-circle outline width hint. Filled
// circles get an anti-aliased rim one outline-width wide; outlined circles
// keep only the rim.
const circleShaderSource = `//kage:unit pixels

package main

var OutlineCircles float

func Fragment(dst vec4, src vec2, color vec4, custom vec4) vec4 {
	fragment := custom.xy
	outlineWidth := custom.z

	distanceToFrag := length(fragment)

	// Everything outside of the circle is culled.
	if distanceToFrag > 1.0 {
		discard()
	}

	alpha := 1.0
	if OutlineCircles > 0.5 {
		if distanceToFrag < 1.0-outlineWidth {
			discard()
		}
	} else {
		alpha = 1.0 - smoothstep(1.0-outlineWidth, 1.0, distanceToFrag)
	}

	return vec4(color.rgb*alpha, alpha)
}
`

// circleRenderer batches circle quads into as few DrawTrianglesShader calls
// as the 16-bit index format allows. Vertex and index buffers are allocated
// once for the spawn limit.
type circleRenderer struct {
	shader   *ebiten.Shader
	vertices []ebiten.Vertex
	indices  []uint16
}

// newCircleRenderer compiles the circle shader and builds the static index
// buffer. The quad corner order never changes, so indices are filled once.
func newCircleRenderer(spawnLimit int) (*circleRenderer, error) {
	shader, err := ebiten.NewShader([]byte(circleShaderSource))
	if err != nil {
		return nil, fmt.Errorf("compiling circle shader: %w", err)
	}

	quads := spawnLimit
	if quads > maxQuadsPerBatch {
		quads = maxQuadsPerBatch
	}
	indices := make([]uint16, quads*6)
	for i := 0; i < quads; i++ {
		base := uint16(i * 4)
		indices[i*6+0] = base + 0
		indices[i*6+1] = base + 1
		indices[i*6+2] = base + 2
		indices[i*6+3] = base + 1
		indices[i*6+4] = base + 2
		indices[i*6+5] = base + 3
	}

	return &circleRenderer{
		shader:   shader,
		vertices: make([]ebiten.Vertex, quads*4),
		indices:  indices,
	}, nil
}

// draw renders every circle interpolated between its previous and current
// tick positions by the given factor.
func (r *circleRenderer) draw(screen *ebiten.Image, engine *Engine, alpha float32, outlineCircles bool) {
	circles := engine.circleData()
	count := circles.count()
	if count == 0 {
		return
	}

	bounds := screen.Bounds()
	screenWidth := float32(bounds.Dx())
	screenHeight := float32(bounds.Dy())

	// World [-bound, +bound] maps linearly onto the screen; Y flips because
	// world up is screen down.
	scaleX := screenWidth / (2 * engine.worldBoundX)
	scaleY := screenHeight / (2 * engine.worldBoundY)

	options := &ebiten.DrawTrianglesShaderOptions{
		Uniforms: map[string]any{"OutlineCircles": outlineValue(outlineCircles)},
	}

	quad := 0
	for i := 0; i < count; i++ {
		x := circles.prevX[i] + (circles.posX[i]-circles.prevX[i])*alpha
		y := circles.prevY[i] + (circles.posY[i]-circles.prevY[i])*alpha

		centerX := (x + engine.worldBoundX) * scaleX
		centerY := (engine.worldBoundY - y) * scaleY
		radiusX := circles.radius[i] * scaleX
		radiusY := circles.radius[i] * scaleY

		r.appendQuad(quad, centerX, centerY, radiusX, radiusY,
			circles.red[i], circles.green[i], circles.blue[i], circles.outlineWidth[i])
		quad++

		if quad == maxQuadsPerBatch {
			screen.DrawTrianglesShader(r.vertices[:quad*4], r.indices[:quad*6], r.shader, options)
			quad = 0
		}
	}
	if quad > 0 {
		screen.DrawTrianglesShader(r.vertices[:quad*4], r.indices[:quad*6], r.shader, options)
	}
}

// appendQuad writes the four corner vertices for one circle. The corners
// carry unit-circle coordinates in Custom0/Custom1 and the outline width in
// Custom2, mirroring the per-instance attributes of the GPU path this design
// comes from.
func (r *circleRenderer) appendQuad(quad int, centerX, centerY, radiusX, radiusY, red, green, blue, outlineWidth float32) {
	base := quad * 4
	corners := [4][2]float32{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}
	for c, corner := range corners {
		r.vertices[base+c] = ebiten.Vertex{
			DstX:    centerX + corner[0]*radiusX,
			DstY:    centerY + corner[1]*radiusY,
			SrcX:    0,
			SrcY:    0,
			ColorR:  red,
			ColorG:  green,
			ColorB:  blue,
			ColorA:  1,
			Custom0: corner[0],
			Custom1: corner[1],
			Custom2: outlineWidth,
		}
	}
}

// outlineValue converts the outline toggle to the shader's float uniform.
func outlineValue(outlineCircles bool) float32 {
	if outlineCircles {
		return 1
	}
	return 0
}
