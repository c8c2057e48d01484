// Package spatial provides the geometry and broad-phase structures shared by
// the arena collaborator and the simulation core.
//
// Structures preallocate their buffers and hand out integer indices instead of
// pointers so per-tick rebuilds stay allocation free.
package spatial

import (
	"math"
)

// Grid buckets entity indices into fixed-size cells on the XZ plane.
//
// Optimal cell size equals the largest common query radius. Cells are stored
// in row-major order (cells[row*cols+col]).
type Grid struct {
	originX, originZ float64
	cellSize         float64
	invCellSize      float64
	cols, rows       int
	cells            [][]uint32
	scratch          []uint32 // reusable buffer for query results
	count            int
}

// NewGrid creates a grid covering [origin, origin+size) on the XZ plane.
func NewGrid(origin Vec3, width, depth, cellSize float64, maxEntities int) *Grid {
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(depth / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]uint32, cols*rows)
	perCell := maxEntities / len(cells)
	if perCell < 4 {
		perCell = 4
	}
	for i := range cells {
		cells[i] = make([]uint32, 0, perCell)
	}

	return &Grid{
		originX:     origin.X,
		originZ:     origin.Z,
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       cells,
		scratch:     make([]uint32, 0, 64),
	}
}

// Clear empties every cell and keeps the capacity.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.count = 0
}

// Insert adds an entity index at pos. Positions outside the grid are clamped
// into the border cells.
func (g *Grid) Insert(id uint32, pos Vec3) {
	col, row := g.cell(pos.X, pos.Z)
	idx := row*g.cols + col
	g.cells[idx] = append(g.cells[idx], id)
	g.count++
}

// Len returns the number of inserted entities.
func (g *Grid) Len() int { return g.count }

func (g *Grid) cell(x, z float64) (col, row int) {
	col = clampInt(int((x-g.originX)*g.invCellSize), 0, g.cols-1)
	row = clampInt(int((z-g.originZ)*g.invCellSize), 0, g.rows-1)
	return col, row
}

// QueryRadius returns the entity indices in every cell touched by the circle
// around center.
//
// The returned slice is reused on the next call. Candidates may lie outside
// the radius; callers run the exact distance check.
func (g *Grid) QueryRadius(center Vec3, radius float64) []uint32 {
	g.scratch = g.scratch[:0]

	minCol, minRow := g.cell(center.X-radius, center.Z-radius)
	maxCol, maxRow := g.cell(center.X+radius, center.Z+radius)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			g.scratch = append(g.scratch, g.cells[row*g.cols+col]...)
		}
	}
	return g.scratch
}

// QuerySegment returns candidates in every cell the segment from a to b
// passes near, widened by pad on each side.
func (g *Grid) QuerySegment(a, b Vec3, pad float64) []uint32 {
	g.scratch = g.scratch[:0]

	minCol, minRow := g.cell(math.Min(a.X, b.X)-pad, math.Min(a.Z, b.Z)-pad)
	maxCol, maxRow := g.cell(math.Max(a.X, b.X)+pad, math.Max(a.Z, b.Z)+pad)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			g.scratch = append(g.scratch, g.cells[row*g.cols+col]...)
		}
	}
	return g.scratch
}

// Dimensions returns the grid dimensions.
func (g *Grid) Dimensions() (cols, rows int, cellSize float64) {
	return g.cols, g.rows, g.cellSize
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
