package game

import (
	"fmt"
	"log"
	"math"

	"survivor/internal/config"
	"survivor/internal/game/spatial"
)

// EnemyFinder answers nearest-target queries.
type EnemyFinder interface {
	NearestEnemy(pos spatial.Vec3, maxRange float64) *Enemy
}

// PlayerDeps are the collaborators a player drives. Body, Physics and Finder
// are required.
type PlayerDeps struct {
	Body     Body
	Physics  Physics
	Finder   EnemyFinder
	Animator Animator
	Effects  Effects
}

// Player is the survivor: moves on input, auto-aims at the nearest enemy
// and shoots.
type Player struct {
	cfg    config.PlayerConfig
	body   Body
	finder EnemyFinder
	anim   Animator
	fx     Effects
	spawn  spatial.Vec3

	health  int
	dead    bool
	input   spatial.Vec3
	firing  bool
	target  *Enemy
	walking bool
	shooter *Shooter
}

// NewPlayer builds a player at full health standing on spawn.
func NewPlayer(cfg config.PlayerConfig, deps PlayerDeps, spawn spatial.Vec3) (*Player, error) {
	if deps.Body == nil || deps.Physics == nil || deps.Finder == nil {
		return nil, fmt.Errorf("player: body, physics and finder: %w", ErrMissingCollaborator)
	}
	p := &Player{
		cfg:    cfg,
		body:   deps.Body,
		finder: deps.Finder,
		anim:   deps.Animator,
		fx:     deps.Effects,
		spawn:  spawn,
	}
	if p.anim == nil {
		p.anim = NopAnimator{}
	}
	if p.fx == nil {
		p.fx = NopEffects{}
	}
	p.shooter = NewShooter(cfg, deps.Physics, p.fx)
	p.ResetState()
	return p, nil
}

func (p *Player) Health() int               { return p.health }
func (p *Player) MaxHealth() int            { return p.cfg.MaxHealth }
func (p *Player) Dead() bool                { return p.dead }
func (p *Player) Position() spatial.Vec3    { return p.body.Position() }
func (p *Player) Yaw() float64              { return p.body.Yaw() }
func (p *Player) Target() *Enemy            { return p.target }
func (p *Player) Shooter() *Shooter         { return p.shooter }
func (p *Player) Walking() bool             { return p.walking }
func (p *Player) Input() spatial.Vec3       { return p.input }
func (p *Player) SetFiring(on bool)         { p.firing = on }
func (p *Player) SetFireMode(m FireMode)    { p.shooter.SetMode(m) }
func (p *Player) SetSpawn(pos spatial.Vec3) { p.spawn = pos }

// DisplayHealth clamps health at zero.
func (p *Player) DisplayHealth() int {
	if p.health < 0 {
		return 0
	}
	return p.health
}

// SetMoveInput sets the movement direction. Only the planar part counts;
// any non-zero input moves at full MoveSpeed.
func (p *Player) SetMoveInput(dir spatial.Vec3) {
	dir = dir.Flat()
	if dir.LenSq() <= spatial.Epsilon {
		p.input = spatial.Vec3{}
		return
	}
	p.input = dir.Normalize()
}

// ResetState restores full health at the spawn position.
func (p *Player) ResetState() {
	p.health = p.cfg.MaxHealth
	p.dead = false
	p.target = nil
	p.input = spatial.Vec3{}
	p.firing = false
	p.shooter.Reset()

	p.body.SetActive(true)
	p.body.SetPosition(p.spawn)
	p.body.SetYaw(0)
	p.body.SetVelocity(spatial.Vec3{})
	p.setWalking(false)
}

// TakeDamage applies enemy damage. The death sequence runs once.
func (p *Player) TakeDamage(amount int) {
	if p.dead || amount <= 0 {
		return
	}
	p.health -= amount
	p.fx.Play(CuePlayerHurt, p.body.Position())

	if p.health > 0 {
		return
	}
	p.dead = true
	p.target = nil
	p.input = spatial.Vec3{}
	p.shooter.Reset()
	p.body.SetVelocity(spatial.Vec3{})
	p.setWalking(false)
	p.anim.Trigger(TriggerDie)
	p.fx.Play(CuePlayerDeath, p.body.Position())
	log.Printf("💀 [Player] died")
}

// FixedUpdate runs on the physics tick: acquire a target, turn, move.
func (p *Player) FixedUpdate(dt float64) {
	if p.dead {
		return
	}
	pos := p.body.Position()
	p.target = p.finder.NearestEnemy(pos, p.cfg.TargetRange)

	look := p.input
	if p.target != nil {
		look = p.target.Position().Sub(pos).Flat()
	}
	if look.LenSq() > spatial.Epsilon {
		step := p.cfg.RotateSpeed * math.Pi / 180 * dt
		p.body.SetYaw(spatial.RotateTowards(p.body.Yaw(), spatial.Yaw(look), step))
	}

	if p.input.LenSq() > spatial.Epsilon {
		p.body.Translate(p.input.Scale(p.cfg.MoveSpeed * dt))
	}
	p.setWalking(p.input.LenSq() > spatial.Epsilon)
}

// Update runs on the frame tick and drives the shooter.
func (p *Player) Update(dt float64) int {
	if p.dead {
		return 0
	}
	hasTarget := p.target != nil && p.target.Alive()
	want := p.firing || (p.cfg.AutoFire && hasTarget)
	return p.shooter.Update(dt, p.body.Position(), p.body.Yaw(), want)
}

func (p *Player) setWalking(w bool) {
	if w == p.walking {
		return
	}
	p.walking = w
	p.anim.SetBool(ParamIsWalking, w)
}
