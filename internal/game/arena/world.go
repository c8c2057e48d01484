// Package arena is a headless physics and navigation world for the
// simulation core: rigid bodies on a flat floor, ray and sphere queries,
// flow-field steering and solid-body separation.
package arena

import (
	"math"

	"survivor/internal/game/spatial"
)

// Config sizes the world.
type Config struct {
	Origin       spatial.Vec3 // minimum XZ corner
	Width        float64
	Depth        float64
	GridCellSize float64 // broad-phase cell, about the largest query radius
	FlowCellSize float64 // navigation resolution
	Gravity      float64
	MaxBodies    int
}

// DefaultConfig returns a 60×60 arena centered on the origin.
func DefaultConfig() Config {
	return Config{
		Origin:       spatial.Vec3{X: -30, Z: -30},
		Width:        60,
		Depth:        60,
		GridCellSize: 5,
		FlowCellSize: 1,
		Gravity:      9.81,
		MaxBodies:    256,
	}
}

// World owns bodies and agents and advances them on the physics tick.
// It is not safe for concurrent use; the engine serializes access.
type World struct {
	cfg    Config
	bodies []*Body
	agents []*Agent

	grid   *spatial.Grid
	sap    *spatial.SweepAndPrune
	fields *spatial.FlowFields
	dirty  bool

	circles []spatial.Circle // scratch for separation
	solids  []*Body
	hits    []spatial.Hit
}

// NewWorld creates an empty world.
func NewWorld(cfg Config) *World {
	if cfg.Width <= 0 || cfg.Depth <= 0 {
		d := DefaultConfig()
		cfg.Origin, cfg.Width, cfg.Depth = d.Origin, d.Width, d.Depth
	}
	if cfg.GridCellSize <= 0 {
		cfg.GridCellSize = 5
	}
	if cfg.FlowCellSize <= 0 {
		cfg.FlowCellSize = 1
	}
	if cfg.MaxBodies <= 0 {
		cfg.MaxBodies = 256
	}

	return &World{
		cfg:     cfg,
		bodies:  make([]*Body, 0, cfg.MaxBodies),
		grid:    spatial.NewGrid(cfg.Origin, cfg.Width, cfg.Depth, cfg.GridCellSize, cfg.MaxBodies),
		sap:     spatial.NewSweepAndPrune(cfg.MaxBodies),
		fields:  spatial.NewFlowFields(cfg.Origin, cfg.Width, cfg.Depth, cfg.FlowCellSize),
		circles: make([]spatial.Circle, 0, cfg.MaxBodies),
		solids:  make([]*Body, 0, cfg.MaxBodies),
		hits:    make([]spatial.Hit, 0, 32),
		dirty:   true,
	}
}

// Config returns the world configuration.
func (w *World) Config() Config { return w.cfg }

// Center returns the arena center on the floor.
func (w *World) Center() spatial.Vec3 {
	return spatial.Vec3{X: w.cfg.Origin.X + w.cfg.Width/2, Z: w.cfg.Origin.Z + w.cfg.Depth/2}
}

func (w *World) markDirty() { w.dirty = true }

// NewBody adds a body.
func (w *World) NewBody(opts BodyOptions) *Body {
	if opts.Radius <= 0 {
		opts.Radius = 0.5
	}
	if opts.Mass <= 0 {
		opts.Mass = 1
	}
	if opts.Layer == 0 {
		opts.Layer = spatial.LayerDefault
	}
	b := &Body{
		world:    w,
		index:    len(w.bodies),
		position: opts.Position,
		yaw:      opts.Yaw,
		radius:   opts.Radius,
		mass:     opts.Mass,
		drag:     opts.Drag,
		layer:    opts.Layer,
		owner:    opts.Owner,
		active:   !opts.Inactive,
	}
	w.bodies = append(w.bodies, b)
	w.dirty = true
	return b
}

// RemoveBody detaches b and any agent driving it.
func (w *World) RemoveBody(b *Body) {
	if b == nil || b.world != w || b.index < 0 {
		return
	}
	last := len(w.bodies) - 1
	w.bodies[b.index] = w.bodies[last]
	w.bodies[b.index].index = b.index
	w.bodies[last] = nil
	w.bodies = w.bodies[:last]
	b.index = -1

	n := 0
	for _, a := range w.agents {
		if a.body != b {
			w.agents[n] = a
			n++
		}
	}
	for i := n; i < len(w.agents); i++ {
		w.agents[i] = nil
	}
	w.agents = w.agents[:n]
	w.dirty = true
}

// NewAgent attaches a navigation agent to b.
func (w *World) NewAgent(b *Body, speed, stoppingDistance float64) *Agent {
	a := &Agent{body: b, speed: speed, stoppingDistance: stoppingDistance}
	w.agents = append(w.agents, a)
	return a
}

// Block marks a static obstacle cell for navigation.
func (w *World) Block(pos spatial.Vec3) {
	w.fields.Block(pos)
}

// BodyCount returns the number of bodies, active or not.
func (w *World) BodyCount() int { return len(w.bodies) }

// Step advances the world by dt seconds: steering, integration, gravity,
// bounds and solid separation.
func (w *World) Step(dt float64) {
	if dt <= 0 {
		return
	}

	for _, a := range w.agents {
		w.steer(a)
	}

	minX, minZ := w.cfg.Origin.X, w.cfg.Origin.Z
	maxX, maxZ := minX+w.cfg.Width, minZ+w.cfg.Depth

	for _, b := range w.bodies {
		if !b.active || b.kinematic || b.constrained {
			continue
		}

		b.position = b.position.Add(b.velocity.Scale(dt))

		if b.position.Y > 0 || b.velocity.Y > 0 {
			b.velocity.Y -= w.cfg.Gravity * dt
		}
		if b.position.Y < 0 {
			b.position.Y = 0
			b.velocity.Y = 0
		}

		if b.drag > 0 {
			k := math.Exp(-b.drag * dt)
			b.velocity.X *= k
			b.velocity.Z *= k
		}

		b.position.X = clamp(b.position.X, minX+b.radius, maxX-b.radius)
		b.position.Z = clamp(b.position.Z, minZ+b.radius, maxZ-b.radius)
	}

	w.separate()
	w.dirty = true
}

// separate pushes overlapping solid bodies apart on the floor plane.
func (w *World) separate() {
	w.circles = w.circles[:0]
	w.solids = w.solids[:0]
	for _, b := range w.bodies {
		if b.solid() {
			w.solids = append(w.solids, b)
			w.circles = append(w.circles, spatial.Circle{Center: b.position, Radius: b.radius})
		}
	}
	if len(w.solids) < 2 {
		return
	}

	for _, p := range w.sap.Update(w.circles) {
		a, b := w.solids[p.A], w.solids[p.B]
		delta := b.position.Sub(a.position).Flat()
		minDist := a.radius + b.radius
		distSq := delta.LenSq()
		if distSq >= minDist*minDist {
			continue
		}

		dist := math.Sqrt(distSq)
		normal := spatial.Vec3{X: 1}
		if dist > 1e-6 {
			normal = delta.Scale(1 / dist)
		}
		overlap := minDist - dist

		aFixed := a.kinematic || a.constrained
		bFixed := b.kinematic || b.constrained
		switch {
		case aFixed && bFixed:
		case aFixed:
			b.position = b.position.Add(normal.Scale(overlap))
		case bFixed:
			a.position = a.position.Sub(normal.Scale(overlap))
		default:
			half := normal.Scale(overlap / 2)
			a.position = a.position.Sub(half)
			b.position = b.position.Add(half)
		}
	}
}

func (w *World) rebuild() {
	if !w.dirty {
		return
	}
	w.grid.Clear()
	for i, b := range w.bodies {
		if b.solid() {
			w.grid.Insert(uint32(i), b.position)
		}
	}
	w.dirty = false
}

// Raycast returns the nearest solid body on mask hit by the planar ray from
// origin along dir within maxDist.
func (w *World) Raycast(origin, dir spatial.Vec3, maxDist float64, mask spatial.Layer) (spatial.Hit, bool) {
	d := dir.Flat().Normalize()
	if d.LenSq() == 0 || maxDist <= 0 {
		return spatial.Hit{}, false
	}
	w.rebuild()

	end := origin.Add(d.Scale(maxDist))
	best := spatial.Hit{Distance: math.Inf(1)}
	found := false

	for _, id := range w.grid.QuerySegment(origin, end, w.cfg.GridCellSize) {
		b := w.bodies[id]
		if !b.layer.Has(mask) {
			continue
		}
		t, ok := rayCircle(origin.Flat(), d, b.position.Flat(), b.radius)
		if !ok || t > maxDist || t >= best.Distance {
			continue
		}
		best = spatial.Hit{
			Point:    origin.Add(d.Scale(t)),
			Distance: t,
			Owner:    b.owner,
		}
		found = true
	}
	return best, found
}

// OverlapSphere returns every solid body on mask whose cylinder intersects
// the circle of radius around center. The returned slice is reused on the
// next query.
func (w *World) OverlapSphere(center spatial.Vec3, radius float64, mask spatial.Layer) []spatial.Hit {
	w.rebuild()
	w.hits = w.hits[:0]

	for _, id := range w.grid.QueryRadius(center, radius+w.cfg.GridCellSize) {
		b := w.bodies[id]
		if !b.layer.Has(mask) {
			continue
		}
		dist := spatial.Distance(center.Flat(), b.position.Flat())
		if dist > radius+b.radius {
			continue
		}
		w.hits = append(w.hits, spatial.Hit{Point: b.position, Distance: dist, Owner: b.owner})
	}
	return w.hits
}

// rayCircle intersects a unit-direction ray with a circle, both on XZ.
// A ray starting inside the circle hits at t = 0.
func rayCircle(origin, dir, center spatial.Vec3, r float64) (float64, bool) {
	m := origin.Sub(center)
	b := m.Dot(dir)
	c := m.Dot(m) - r*r
	if c > 0 && b > 0 {
		return 0, false
	}
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	t := -b - math.Sqrt(disc)
	if t < 0 {
		t = 0
	}
	return t, true
}

func clamp(v, lo, hi float64) float64 {
	if lo > hi {
		return (lo + hi) / 2
	}
	return math.Max(lo, math.Min(hi, v))
}
