package arena

import (
	"survivor/internal/game/spatial"
)

// Body is a rigid body on the arena floor. Collision is a vertical cylinder
// of Radius around Position.
type Body struct {
	world *World
	index int // slot in world.bodies, -1 when removed

	position spatial.Vec3
	yaw      float64
	velocity spatial.Vec3
	radius   float64
	mass     float64
	drag     float64
	layer    spatial.Layer
	owner    any

	kinematic   bool // ignores forces and integration
	constrained bool // position frozen by constraints
	trigger     bool // excluded from queries and separation
	active      bool
}

// BodyOptions configure a new body.
type BodyOptions struct {
	Position spatial.Vec3
	Yaw      float64
	Radius   float64
	Mass     float64
	Drag     float64
	Layer    spatial.Layer
	Owner    any
	Inactive bool
}

func (b *Body) Position() spatial.Vec3 { return b.position }

// SetPosition teleports the body.
func (b *Body) SetPosition(p spatial.Vec3) {
	b.position = p
	b.world.markDirty()
}

// Translate moves the body by delta regardless of the kinematic flag.
func (b *Body) Translate(delta spatial.Vec3) {
	b.position = b.position.Add(delta)
	b.world.markDirty()
}

func (b *Body) Yaw() float64         { return b.yaw }
func (b *Body) SetYaw(yaw float64)   { b.yaw = spatial.NormalizeAngle(yaw) }
func (b *Body) Radius() float64      { return b.radius }
func (b *Body) Layer() spatial.Layer { return b.layer }

func (b *Body) Velocity() spatial.Vec3 { return b.velocity }

func (b *Body) SetVelocity(v spatial.Vec3) { b.velocity = v }

// AddImpulse applies an instantaneous change of momentum. Kinematic bodies
// ignore it.
func (b *Body) AddImpulse(impulse spatial.Vec3) {
	if b.kinematic {
		return
	}
	b.velocity = b.velocity.Add(impulse.Scale(1 / b.mass))
}

func (b *Body) Kinematic() bool { return b.kinematic }

// SetKinematic toggles force response. Becoming kinematic clears velocity.
func (b *Body) SetKinematic(k bool) {
	b.kinematic = k
	if k {
		b.velocity = spatial.Vec3{}
	}
}

func (b *Body) Constrained() bool { return b.constrained }

// Constrain freezes the body in place until ClearConstraints.
func (b *Body) Constrain() { b.constrained = true }

func (b *Body) ClearConstraints() { b.constrained = false }

func (b *Body) Trigger() bool { return b.trigger }

// SetTrigger switches between a solid volume and a trigger-only volume.
func (b *Body) SetTrigger(t bool) {
	b.trigger = t
	b.world.markDirty()
}

func (b *Body) Active() bool { return b.active }

// SetActive includes or excludes the body from the simulation.
func (b *Body) SetActive(a bool) {
	b.active = a
	if !a {
		b.velocity = spatial.Vec3{}
	}
	b.world.markDirty()
}

func (b *Body) Owner() any { return b.owner }

func (b *Body) SetOwner(o any) { b.owner = o }

// solid reports whether the body takes part in queries and separation.
func (b *Body) solid() bool {
	return b.active && !b.trigger
}
