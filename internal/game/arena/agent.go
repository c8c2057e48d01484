package arena

import (
	"survivor/internal/game/spatial"
)

// Agent steers a body toward a destination over the world's flow fields.
type Agent struct {
	body             *Body
	speed            float64
	stoppingDistance float64
	destination      spatial.Vec3
	hasDestination   bool
	following        bool
}

// SetDestination changes the goal. The path is resolved on the next step.
func (a *Agent) SetDestination(p spatial.Vec3) {
	a.destination = p
	a.hasDestination = true
}

func (a *Agent) Destination() spatial.Vec3 { return a.destination }

// SetFollowing enables or disables autonomous movement. Disabling stops the
// body's planar motion.
func (a *Agent) SetFollowing(on bool) {
	if a.following && !on {
		v := a.body.velocity
		a.body.velocity = spatial.Vec3{Y: v.Y}
	}
	a.following = on
}

func (a *Agent) Following() bool { return a.following }

func (a *Agent) Speed() float64 { return a.speed }

func (a *Agent) Body() *Body { return a.body }

func (w *World) steer(a *Agent) {
	b := a.body
	if !a.following || !a.hasDestination || !b.active || b.kinematic || b.constrained {
		return
	}

	toGoal := a.destination.Sub(b.position).Flat()
	dist := toGoal.Len()
	if dist <= a.stoppingDistance {
		b.velocity = spatial.Vec3{Y: b.velocity.Y}
		return
	}

	dir := spatial.Vec3{}
	if dist > w.cfg.FlowCellSize*1.5 {
		dir = w.fields.For(a.destination).Lookup(b.position)
	}
	if dir.LenSq() <= spatial.Epsilon {
		dir = toGoal.Scale(1 / dist)
	}

	b.velocity = spatial.Vec3{X: dir.X * a.speed, Y: b.velocity.Y, Z: dir.Z * a.speed}
	b.yaw = spatial.Yaw(dir)
}
