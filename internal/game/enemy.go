package game

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync/atomic"

	"survivor/internal/config"
	"survivor/internal/game/spatial"
)

// EnemyType tags an enemy for pool routing. Behavior differences live in
// the per-type config only.
type EnemyType string

// EnemyState is the lifecycle stage of a pooled enemy.
type EnemyState uint8

const (
	EnemyIdle   EnemyState = iota // pooled, out of play
	EnemyActive                   // spawned and fighting
	EnemyDead                     // dead and sinking, waiting for release
)

func (s EnemyState) String() string {
	switch s {
	case EnemyIdle:
		return "idle"
	case EnemyActive:
		return "active"
	case EnemyDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Target is what an enemy chases and attacks.
type Target interface {
	Position() spatial.Vec3
	Health() int
	TakeDamage(amount int)
}

// DeathListener is notified synchronously, in subscription order, when an
// enemy dies.
type DeathListener interface {
	OnEnemyDeath(e *Enemy)
}

// Releaser takes a sunk enemy back out of play.
type Releaser interface {
	ReleaseEnemy(e *Enemy)
}

// EnemyDeps are the collaborators an enemy drives. Body and Nav are required.
type EnemyDeps struct {
	Body     Body
	Nav      Navigator
	Animator Animator
	Effects  Effects
	Rand     *rand.Rand
}

var lastEnemyID atomic.Int64

// Enemy is a pooled melee actor.
type Enemy struct {
	id  int64
	typ EnemyType
	cfg config.EnemyConfig

	body Body
	nav  Navigator
	anim Animator
	fx   Effects
	rng  *rand.Rand

	health         int
	state          EnemyState
	knocked        bool
	knockTimer     float64
	impulse        spatial.Vec3
	impulsePending bool
	attackCooldown float64
	wanderTimer    float64
	sawPlayerDead  bool
	sink           Deferred

	target    Target
	releaser  Releaser
	listeners []DeathListener
}

// NewEnemy builds an idle enemy with a fresh process-wide ID.
func NewEnemy(typ EnemyType, cfg config.EnemyConfig, deps EnemyDeps) (*Enemy, error) {
	if deps.Body == nil || deps.Nav == nil {
		return nil, fmt.Errorf("enemy %s: body and navigator: %w", typ, ErrMissingCollaborator)
	}
	id := lastEnemyID.Add(1)
	e := &Enemy{
		id:     id,
		typ:    typ,
		cfg:    cfg,
		body:   deps.Body,
		nav:    deps.Nav,
		anim:   deps.Animator,
		fx:     deps.Effects,
		rng:    deps.Rand,
		health: cfg.MaxHealth,
		state:  EnemyIdle,
	}
	if e.anim == nil {
		e.anim = NopAnimator{}
	}
	if e.fx == nil {
		e.fx = NopEffects{}
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(id))
	}
	e.body.SetActive(false)
	return e, nil
}

func (e *Enemy) ID() int64                  { return e.id }
func (e *Enemy) Type() EnemyType            { return e.typ }
func (e *Enemy) Health() int                { return e.health }
func (e *Enemy) MaxHealth() int             { return e.cfg.MaxHealth }
func (e *Enemy) State() EnemyState          { return e.state }
func (e *Enemy) Knocked() bool              { return e.knocked }
func (e *Enemy) Score() int                 { return e.cfg.Score }
func (e *Enemy) Position() spatial.Vec3     { return e.body.Position() }
func (e *Enemy) Yaw() float64               { return e.body.Yaw() }
func (e *Enemy) Config() config.EnemyConfig { return e.cfg }

// DisplayHealth clamps health at zero.
func (e *Enemy) DisplayHealth() int {
	if e.health < 0 {
		return 0
	}
	return e.health
}

// Alive reports whether the enemy is in play and undefeated.
func (e *Enemy) Alive() bool {
	return e.state == EnemyActive && e.health > 0
}

// Sinking reports whether the enemy is in its post-death sink.
func (e *Enemy) Sinking() bool { return e.state == EnemyDead }

func (e *Enemy) SetTarget(t Target)     { e.target = t }
func (e *Enemy) SetReleaser(r Releaser) { e.releaser = r }

// Subscribe adds a death listener. Subscribing the same listener twice is a
// no-op, so subscriptions survive pool recycling without duplicating.
func (e *Enemy) Subscribe(l DeathListener) {
	for _, existing := range e.listeners {
		if existing == l {
			return
		}
	}
	e.listeners = append(e.listeners, l)
}

// Place moves the enemy to a spawn location.
func (e *Enemy) Place(pos spatial.Vec3, yaw float64) {
	e.body.SetPosition(pos)
	e.body.SetYaw(yaw)
}

// ResetState restores full health and solid, force-responsive physics.
func (e *Enemy) ResetState() {
	e.health = e.cfg.MaxHealth
	e.state = EnemyActive
	e.knocked = false
	e.knockTimer = 0
	e.impulse = spatial.Vec3{}
	e.impulsePending = false
	e.attackCooldown = e.cfg.AttackInterval
	e.wanderTimer = e.cfg.WanderInterval
	e.sawPlayerDead = false
	e.sink.Cancel()

	e.body.SetActive(true)
	e.body.SetTrigger(false)
	e.body.SetKinematic(false)
	e.body.ClearConstraints()
	e.body.SetVelocity(spatial.Vec3{})
	e.nav.SetFollowing(false)
}

// deactivate takes the enemy out of play. Called by the pool on release.
func (e *Enemy) deactivate() {
	e.state = EnemyIdle
	e.knocked = false
	e.impulsePending = false
	e.sink.Cancel()
	e.nav.SetFollowing(false)
	e.body.SetVelocity(spatial.Vec3{})
	e.body.SetActive(false)
}

// TakeDamage applies a hit from source. Lethal damage starts the death
// protocol; otherwise the enemy is knocked back unless it already is.
func (e *Enemy) TakeDamage(amount int, source spatial.Vec3, force float64) {
	if e.state != EnemyActive || e.health <= 0 || amount <= 0 {
		return
	}

	e.health -= amount
	e.fx.Play(CueEnemyHurt, e.body.Position())

	if e.health <= 0 {
		e.die()
		return
	}
	if e.knocked {
		return
	}

	dir := e.body.Position().Sub(source).Flat().Normalize()
	if dir.LenSq() == 0 {
		dir = spatial.Forward(e.body.Yaw()).Scale(-1)
	}
	if force < e.cfg.MinKnockbackForce {
		force = e.cfg.DefaultKnockbackForce
	}

	e.knocked = true
	e.knockTimer = e.cfg.KnockbackDuration
	e.nav.SetFollowing(false)
	e.body.SetVelocity(spatial.Vec3{})
	// Applied on the next physics tick, after the stop has settled.
	e.impulse = dir.Scale(force)
	e.impulsePending = true
}

// FixedUpdate runs on the physics tick and applies a pending knockback.
func (e *Enemy) FixedUpdate() {
	if !e.impulsePending {
		return
	}
	e.impulsePending = false
	if e.state != EnemyActive {
		return
	}
	e.ensureDynamic()
	e.body.AddImpulse(e.impulse)
}

// Update runs on the frame tick.
func (e *Enemy) Update(dt float64) {
	switch e.state {
	case EnemyIdle:
		return
	case EnemyDead:
		e.body.Translate(spatial.Vec3{Y: -e.cfg.SinkSpeed * dt})
		e.sink.Advance(dt)
		return
	}

	if e.knocked {
		e.knockTimer -= dt
		if e.knockTimer <= 0 {
			e.knocked = false
			e.knockTimer = 0
			e.body.SetVelocity(spatial.Vec3{})
		}
		return
	}

	if e.attackCooldown > 0 {
		e.attackCooldown -= dt
	}
	e.pursue()

	e.wanderTimer -= dt
	if e.wanderTimer <= 0 {
		e.wanderTimer = e.cfg.WanderInterval
		e.wander()
	}
}

func (e *Enemy) pursue() {
	if e.target == nil {
		return
	}
	if e.target.Health() <= 0 {
		if !e.sawPlayerDead {
			e.sawPlayerDead = true
			e.nav.SetFollowing(false)
			e.anim.Trigger(TriggerPlayerDead)
		}
		return
	}

	targetPos := e.target.Position()
	e.nav.SetDestination(targetPos)
	if !e.nav.Following() {
		e.nav.SetFollowing(true)
	}

	inRange := spatial.Distance(e.body.Position().Flat(), targetPos.Flat()) <= e.cfg.AttackRange
	if inRange && e.attackCooldown <= 0 {
		e.attackCooldown = e.cfg.AttackInterval
		e.anim.Trigger(TriggerAttack)
		e.fx.Play(CueEnemyAttack, e.body.Position())
		e.target.TakeDamage(e.cfg.AttackDamage)
	}
}

// wander gives the enemy a small random hop from rest. While the navigator
// is following, steering owns planar velocity, so only the lift survives.
func (e *Enemy) wander() {
	if e.cfg.WanderForce <= 0 {
		return
	}
	e.ensureDynamic()
	e.body.SetVelocity(spatial.Vec3{})
	dir := spatial.Forward(e.rng.Float64() * 2 * math.Pi)
	dir.Y = e.cfg.WanderLift
	e.body.AddImpulse(dir.Normalize().Scale(e.cfg.WanderForce))
}

// ensureDynamic repairs a body that should respond to forces but was left
// kinematic or constrained.
func (e *Enemy) ensureDynamic() {
	if !e.body.Kinematic() && !e.body.Constrained() {
		return
	}
	log.Printf("⚠️ [Enemy %s#%d] body frozen while alive, restoring physics response", e.typ, e.id)
	e.body.SetKinematic(false)
	e.body.ClearConstraints()
}

// die runs the death protocol once per life.
func (e *Enemy) die() {
	e.state = EnemyDead
	e.knocked = false
	e.impulsePending = false
	e.nav.SetFollowing(false)
	e.body.SetTrigger(true)
	e.anim.Trigger(TriggerDead)
	e.fx.Play(CueEnemyDeath, e.body.Position())

	for _, l := range e.listeners {
		l.OnEnemyDeath(e)
	}

	e.body.SetKinematic(true)
	e.sink.Schedule(e.cfg.SinkDelay, func() {
		if e.releaser != nil {
			e.releaser.ReleaseEnemy(e)
		}
	})
}
