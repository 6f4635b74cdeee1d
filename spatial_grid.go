package main

import "math"

// spatialGrid is a uniform grid over the container used for broad-phase
// collision detection. The cell size equals the maximum circle diameter, so
// any overlapping pair of circles occupies the same cell or adjacent cells and
// only the immediate neighbourhood ever needs searching.
type spatialGrid struct {
	worldBoundX float32
	worldBoundY float32

	cellSize float32

	cellCountX int
	cellCountY int

	// Row-major cells of circle indices; index of cell (x, y) is
	// y*cellCountX + x. Cells are cleared and refilled every tick.
	cells [][]int32
}

// newSpatialGrid builds a grid for the given container half-extents. The cell
// size hint is clamped to a sane minimum.
func newSpatialGrid(worldBoundX, worldBoundY, cellSizeHint float32) *spatialGrid {
	g := &spatialGrid{cellSize: cellSizeHint}
	if g.cellSize < minGridCellSize {
		g.cellSize = minGridCellSize
	}
	g.updateDimensions(worldBoundX, worldBoundY)
	return g
}

// updateDimensions resizes the grid if the container bounds have changed
// enough to change the cell counts. Existing cell slices are kept so their
// capacity survives across ticks.
func (g *spatialGrid) updateDimensions(worldBoundX, worldBoundY float32) {
	g.worldBoundX = worldBoundX
	g.worldBoundY = worldBoundY

	newCellCountX := int(2*worldBoundX/g.cellSize) + 1
	newCellCountY := int(2*worldBoundY/g.cellSize) + 1
	if newCellCountX == g.cellCountX && newCellCountY == g.cellCountY {
		return
	}
	g.cellCountX = newCellCountX
	g.cellCountY = newCellCountY

	total := newCellCountX * newCellCountY
	if cap(g.cells) < total {
		cells := make([][]int32, total)
		copy(cells, g.cells)
		g.cells = cells
	} else {
		g.cells = g.cells[:total]
	}
}

// clear empties every cell for the next tick without freeing its storage.
func (g *spatialGrid) clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// insert places a circle index into the cell containing its center. Circles
// outside the grid are silently skipped; that mainly happens right after a
// window resize, and wall resolution pulls them back on the next tick.
func (g *spatialGrid) insert(index int32, x, y float32) {
	cellX, cellY := g.worldToCell(x, y)
	if cellX < 0 || cellX >= g.cellCountX || cellY < 0 || cellY >= g.cellCountY {
		return
	}
	cell := cellY*g.cellCountX + cellX
	g.cells[cell] = append(g.cells[cell], index)
}

// appendPotentialPairs appends every candidate collision pair to pairs and
// returns the extended slice. Cells are visited in row-major order; within a
// cell all later-index pairs are emitted, then the cartesian products with the
// right, down, down-right, and down-left neighbours. The forward half-stencil
// visits each unordered pair at most once.
func (g *spatialGrid) appendPotentialPairs(pairs [][2]int32) [][2]int32 {
	for y := 0; y < g.cellCountY; y++ {
		for x := 0; x < g.cellCountX; x++ {
			cell := g.cells[y*g.cellCountX+x]

			for i := 0; i < len(cell); i++ {
				for j := i + 1; j < len(cell); j++ {
					pairs = append(pairs, [2]int32{cell[i], cell[j]})
				}
			}

			if x+1 < g.cellCountX {
				pairs = g.appendCrossPairs(pairs, cell, g.cells[y*g.cellCountX+x+1])
			}
			if y+1 < g.cellCountY {
				pairs = g.appendCrossPairs(pairs, cell, g.cells[(y+1)*g.cellCountX+x])
			}
			if x+1 < g.cellCountX && y+1 < g.cellCountY {
				pairs = g.appendCrossPairs(pairs, cell, g.cells[(y+1)*g.cellCountX+x+1])
			}
			if x > 0 && y+1 < g.cellCountY {
				pairs = g.appendCrossPairs(pairs, cell, g.cells[(y+1)*g.cellCountX+x-1])
			}
		}
	}
	return pairs
}

// appendCrossPairs emits the cartesian product of two neighbouring cells.
func (g *spatialGrid) appendCrossPairs(pairs [][2]int32, cell, neighbour []int32) [][2]int32 {
	for _, first := range cell {
		for _, second := range neighbour {
			pairs = append(pairs, [2]int32{first, second})
		}
	}
	return pairs
}

// worldToCell maps a world position to grid coordinates by shifting from
// [-bound, bound] into [0, 2*bound] space.
func (g *spatialGrid) worldToCell(x, y float32) (int, int) {
	cellX := math.Floor(float64((x + g.worldBoundX) / g.cellSize))
	cellY := math.Floor(float64((y + g.worldBoundY) / g.cellSize))
	return int(cellX), int(cellY)
}
