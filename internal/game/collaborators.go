package game

import (
	"survivor/internal/game/spatial"
)

// Animation triggers and parameters fired on state transitions.
const (
	TriggerAttack     = "Attack"
	TriggerDead       = "Dead"
	TriggerPlayerDead = "PlayerDead"
	TriggerDie        = "Die"
	ParamIsWalking    = "IsWalking"
)

// Body is the physics handle an actor drives.
type Body interface {
	Position() spatial.Vec3
	SetPosition(p spatial.Vec3)
	Translate(delta spatial.Vec3)
	Yaw() float64
	SetYaw(yaw float64)
	Velocity() spatial.Vec3
	SetVelocity(v spatial.Vec3)
	AddImpulse(impulse spatial.Vec3)
	Kinematic() bool
	SetKinematic(k bool)
	Constrained() bool
	ClearConstraints()
	SetTrigger(t bool)
	SetActive(a bool)
}

// Navigator moves a body toward a destination. Path computation is its
// concern, not the actor's.
type Navigator interface {
	SetDestination(p spatial.Vec3)
	SetFollowing(on bool)
	Following() bool
}

// Physics answers ray and overlap queries against a layer mask.
type Physics interface {
	Raycast(origin, dir spatial.Vec3, maxDist float64, mask spatial.Layer) (spatial.Hit, bool)
	OverlapSphere(center spatial.Vec3, radius float64, mask spatial.Layer) []spatial.Hit
}

// Animator receives discrete animation triggers.
type Animator interface {
	Trigger(name string)
	SetBool(name string, v bool)
}

// Cue is a fire-and-forget audio/VFX command.
type Cue uint8

const (
	CueEnemyHurt Cue = iota + 1
	CueEnemyDeath
	CueEnemyAttack
	CuePlayerHurt
	CuePlayerDeath
	CueMuzzle
)

func (c Cue) String() string {
	switch c {
	case CueEnemyHurt:
		return "enemy_hurt"
	case CueEnemyDeath:
		return "enemy_death"
	case CueEnemyAttack:
		return "enemy_attack"
	case CuePlayerHurt:
		return "player_hurt"
	case CuePlayerDeath:
		return "player_death"
	case CueMuzzle:
		return "muzzle"
	default:
		return "unknown"
	}
}

// Effects plays audio and visual cues.
type Effects interface {
	Play(cue Cue, at spatial.Vec3)
	Stop(cue Cue)
}

// Presenter shows match status text and countdown marks.
type Presenter interface {
	ShowStatus(msg string)
	HideStatus()
	Countdown(n int)
}

// Nop implementations for collaborators a caller does not care about.
type (
	NopAnimator  struct{}
	NopEffects   struct{}
	NopPresenter struct{}
)

func (NopAnimator) Trigger(string)        {}
func (NopAnimator) SetBool(string, bool)  {}
func (NopEffects) Play(Cue, spatial.Vec3) {}
func (NopEffects) Stop(Cue)               {}
func (NopPresenter) ShowStatus(string)    {}
func (NopPresenter) HideStatus()          {}
func (NopPresenter) Countdown(int)        {}
