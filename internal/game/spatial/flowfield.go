package spatial

import (
	"math"
)

// FlowField steers any number of agents toward one goal with a single
// precomputed direction per cell on the XZ plane.
type FlowField struct {
	originX, originZ float64
	cols, rows       int
	cellSize         float64
	invCellSize      float64
	integration      []float32 // cost to reach goal from each cell
	flowX            []float32
	flowZ            []float32
	blocked          []bool
	queue            []int
	goal             Vec3
	generated        bool
}

var (
	neighborDX   = [8]int{-1, 0, 1, -1, 1, -1, 0, 1}
	neighborDZ   = [8]int{-1, -1, -1, 0, 0, 1, 1, 1}
	neighborCost = [8]float32{1.41421356, 1, 1.41421356, 1, 1, 1.41421356, 1, 1.41421356}
)

const unreachable = float32(math.MaxFloat32)

// NewFlowField creates a field covering [origin, origin+size) on XZ.
func NewFlowField(origin Vec3, width, depth, cellSize float64) *FlowField {
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(depth / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	size := cols * rows

	return &FlowField{
		originX:     origin.X,
		originZ:     origin.Z,
		cols:        cols,
		rows:        rows,
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		integration: make([]float32, size),
		flowX:       make([]float32, size),
		flowZ:       make([]float32, size),
		blocked:     make([]bool, size),
		queue:       make([]int, 0, size),
	}
}

func (f *FlowField) index(x, z float64) (int, bool) {
	col := int(math.Floor((x - f.originX) * f.invCellSize))
	row := int(math.Floor((z - f.originZ) * f.invCellSize))
	if col < 0 || col >= f.cols || row < 0 || row >= f.rows {
		return 0, false
	}
	return row*f.cols + col, true
}

// SetCellBlocked marks the cell containing pos as impassable or clear.
func (f *FlowField) SetCellBlocked(pos Vec3, isBlocked bool) {
	if idx, ok := f.index(pos.X, pos.Z); ok {
		f.blocked[idx] = isBlocked
		f.generated = false
	}
}

// Goal returns the position the field was last generated toward.
func (f *FlowField) Goal() Vec3 { return f.goal }

// Generated reports whether the field matches its current goal and obstacles.
func (f *FlowField) Generated() bool { return f.generated }

// Generate recomputes the integration and flow layers toward goal.
// O(cols × rows).
func (f *FlowField) Generate(goal Vec3) {
	f.goal = goal
	f.generated = true

	for i := range f.integration {
		f.integration[i] = unreachable
	}

	col := clampInt(int(math.Floor((goal.X-f.originX)*f.invCellSize)), 0, f.cols-1)
	row := clampInt(int(math.Floor((goal.Z-f.originZ)*f.invCellSize)), 0, f.rows-1)
	goalIdx := row*f.cols + col
	if f.blocked[goalIdx] {
		for i := range f.flowX {
			f.flowX[i], f.flowZ[i] = 0, 0
		}
		return
	}
	f.integration[goalIdx] = 0

	f.queue = append(f.queue[:0], goalIdx)
	for head := 0; head < len(f.queue); head++ {
		current := f.queue[head]
		r, c := current/f.cols, current%f.cols
		base := f.integration[current]

		for i := 0; i < 8; i++ {
			nc, nr := c+neighborDX[i], r+neighborDZ[i]
			if nc < 0 || nc >= f.cols || nr < 0 || nr >= f.rows {
				continue
			}
			nidx := nr*f.cols + nc
			if f.blocked[nidx] {
				continue
			}
			if cost := base + neighborCost[i]; cost < f.integration[nidx] {
				f.integration[nidx] = cost
				f.queue = append(f.queue, nidx)
			}
		}
	}

	for idx := range f.integration {
		f.flowX[idx], f.flowZ[idx] = 0, 0
		if f.integration[idx] == unreachable {
			continue
		}
		r, c := idx/f.cols, idx%f.cols
		best := f.integration[idx]
		var bx, bz float32
		for i := 0; i < 8; i++ {
			nc, nr := c+neighborDX[i], r+neighborDZ[i]
			if nc < 0 || nc >= f.cols || nr < 0 || nr >= f.rows {
				continue
			}
			if v := f.integration[nr*f.cols+nc]; v < best {
				best = v
				bx, bz = float32(neighborDX[i]), float32(neighborDZ[i])
			}
		}
		if l := float32(math.Sqrt(float64(bx*bx + bz*bz))); l > 0 {
			f.flowX[idx], f.flowZ[idx] = bx/l, bz/l
		}
	}
}

// Lookup returns the unit flow direction at pos. The zero vector means the
// position is outside the field, unreachable, or inside the goal cell.
func (f *FlowField) Lookup(pos Vec3) Vec3 {
	idx, ok := f.index(pos.X, pos.Z)
	if !ok {
		return Vec3{}
	}
	return Vec3{X: float64(f.flowX[idx]), Z: float64(f.flowZ[idx])}
}

// Cost returns the integration cost at pos, or +Inf when unreachable.
func (f *FlowField) Cost(pos Vec3) float64 {
	idx, ok := f.index(pos.X, pos.Z)
	if !ok || f.integration[idx] == unreachable {
		return math.Inf(1)
	}
	return float64(f.integration[idx])
}

// Dimensions returns the grid dimensions.
func (f *FlowField) Dimensions() (cols, rows int, cellSize float64) {
	return f.cols, f.rows, f.cellSize
}

// FlowFields caches one field per goal cell so agents heading to the same
// destination share a field.
type FlowFields struct {
	origin       Vec3
	width, depth float64
	cellSize     float64
	fields       map[int]*FlowField
	blocked      []Vec3
	maxFields    int
}

// NewFlowFields creates an empty cache.
func NewFlowFields(origin Vec3, width, depth, cellSize float64) *FlowFields {
	return &FlowFields{
		origin:    origin,
		width:     width,
		depth:     depth,
		cellSize:  cellSize,
		fields:    make(map[int]*FlowField),
		maxFields: 16,
	}
}

// Block marks an obstacle cell in every current and future field.
func (m *FlowFields) Block(pos Vec3) {
	m.blocked = append(m.blocked, pos)
	for _, f := range m.fields {
		f.SetCellBlocked(pos, true)
	}
}

func (m *FlowFields) key(goal Vec3) int {
	col := int(math.Floor((goal.X - m.origin.X) / m.cellSize))
	row := int(math.Floor((goal.Z - m.origin.Z) / m.cellSize))
	return row<<16 + col
}

// For returns a generated field toward goal, building it on first use.
// Goals in the same cell share a field.
func (m *FlowFields) For(goal Vec3) *FlowField {
	k := m.key(goal)
	if f, ok := m.fields[k]; ok {
		if !f.Generated() {
			f.Generate(f.Goal())
		}
		return f
	}
	if len(m.fields) >= m.maxFields {
		m.fields = make(map[int]*FlowField)
	}
	f := NewFlowField(m.origin, m.width, m.depth, m.cellSize)
	for _, p := range m.blocked {
		f.SetCellBlocked(p, true)
	}
	f.Generate(goal)
	m.fields[k] = f
	return f
}

// Len returns the number of cached fields.
func (m *FlowFields) Len() int { return len(m.fields) }
