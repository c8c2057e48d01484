package game

import (
	"strings"

	"survivor/internal/config"
	"survivor/internal/game/spatial"
)

// FireMode selects between a single ray shot and an area blast.
type FireMode uint8

const (
	FireSingle FireMode = iota
	FireArea
)

func (m FireMode) String() string {
	if m == FireArea {
		return "area"
	}
	return "single"
}

// ParseFireMode maps "single" and "area". Anything else is single.
func ParseFireMode(s string) FireMode {
	if strings.EqualFold(s, "area") {
		return FireArea
	}
	return FireSingle
}

// FirePattern selects how shots are paced.
type FirePattern uint8

const (
	PatternCooldown FirePattern = iota // one shot per ShotCooldown
	PatternBurst                       // N shots over a window, then a pause
)

func (p FirePattern) String() string {
	if p == PatternBurst {
		return "burst"
	}
	return "cooldown"
}

// ParseFirePattern maps "cooldown" and "burst". Anything else is cooldown.
func ParseFirePattern(s string) FirePattern {
	if strings.EqualFold(s, "burst") {
		return PatternBurst
	}
	return PatternCooldown
}

// Shot is the outcome of one fired shot, kept for snapshots.
type Shot struct {
	Mode FireMode     `json:"mode" msgpack:"mode"`
	From spatial.Vec3 `json:"from" msgpack:"from"`
	To   spatial.Vec3 `json:"to" msgpack:"to"`
	Hits int          `json:"hits" msgpack:"hits"`
}

// Shooter paces and resolves the player's shots. All timers count down in
// seconds of simulated time.
type Shooter struct {
	cfg     config.PlayerConfig
	physics Physics
	fx      Effects
	hitbox  Hitbox

	mode    FireMode
	pattern FirePattern

	cooldown float64

	bursting  bool
	burstMode FireMode
	shotsLeft int
	shotTimer float64
	pause     float64

	effect    Deferred
	lastShot  Shot
	shotCount int
}

// NewShooter builds a shooter from the player's weapon settings.
func NewShooter(cfg config.PlayerConfig, physics Physics, fx Effects) *Shooter {
	if fx == nil {
		fx = NopEffects{}
	}
	return &Shooter{
		cfg:     cfg,
		physics: physics,
		fx:      fx,
		hitbox:  AreaHitbox(cfg.AreaAngle),
		mode:    ParseFireMode(cfg.FireMode),
		pattern: ParseFirePattern(cfg.FirePattern),
	}
}

func (s *Shooter) Mode() FireMode       { return s.mode }
func (s *Shooter) SetMode(m FireMode)   { s.mode = m }
func (s *Shooter) Pattern() FirePattern { return s.pattern }
func (s *Shooter) Bursting() bool       { return s.bursting }
func (s *Shooter) LastShot() Shot       { return s.lastShot }
func (s *Shooter) ShotCount() int       { return s.shotCount }

// SetPattern switches pacing. A burst in progress is abandoned.
func (s *Shooter) SetPattern(p FirePattern) {
	if p == s.pattern {
		return
	}
	s.pattern = p
	s.bursting = false
	s.shotsLeft = 0
}

// Reset clears timers and any pending muzzle effect.
func (s *Shooter) Reset() {
	s.cooldown = 0
	s.bursting = false
	s.shotsLeft = 0
	s.shotTimer = 0
	s.pause = 0
	if s.effect.Pending() {
		s.effect.Cancel()
		s.fx.Stop(CueMuzzle)
	}
}

func (s *Shooter) burstConfig(m FireMode) config.BurstConfig {
	if m == FireArea {
		return s.cfg.AreaBurst
	}
	return s.cfg.SingleBurst
}

// Update advances timers and fires from origin along yaw while wantFire
// holds. Returns the number of shots fired this tick.
func (s *Shooter) Update(dt float64, origin spatial.Vec3, yaw float64, wantFire bool) int {
	s.effect.Advance(dt)

	if s.pattern == PatternCooldown {
		if s.cooldown > 0 {
			s.cooldown -= dt
		}
		if !wantFire || s.cooldown > 0 {
			return 0
		}
		s.cooldown = s.cfg.ShotCooldown
		s.fire(s.mode, origin, yaw, s.cfg.ShotCooldown)
		return 1
	}

	if !s.bursting {
		if s.pause > 0 {
			s.pause -= dt
		}
		if !wantFire || s.pause > 0 {
			return 0
		}
		b := s.burstConfig(s.mode)
		if b.Shots <= 0 {
			return 0
		}
		s.bursting = true
		s.burstMode = s.mode
		s.shotsLeft = b.Shots
		s.shotTimer = 0
	} else {
		s.shotTimer -= dt
	}

	b := s.burstConfig(s.burstMode)
	interval := b.Duration / float64(b.Shots)
	fired := 0
	for s.bursting && s.shotTimer <= 0 {
		s.fire(s.burstMode, origin, yaw, interval)
		fired++
		s.shotsLeft--
		s.shotTimer += interval
		if s.shotsLeft == 0 {
			s.bursting = false
			s.pause = b.Pause
		}
		if interval <= 0 {
			break
		}
	}
	return fired
}

func (s *Shooter) fire(mode FireMode, origin spatial.Vec3, yaw, interval float64) {
	forward := spatial.Forward(yaw)
	shot := Shot{Mode: mode, From: origin}

	if s.physics != nil {
		if mode == FireArea {
			shot.To = origin
			for _, h := range s.physics.OverlapSphere(origin, s.cfg.AreaRadius, spatial.LayerShootable) {
				e, ok := h.Owner.(*Enemy)
				if !ok || !e.Alive() || !s.hitbox.CheckHit(origin, forward, h.Point) {
					continue
				}
				e.TakeDamage(s.cfg.Damage, origin, s.cfg.KnockbackForce)
				shot.Hits++
			}
		} else {
			shot.To = origin.Add(forward.Scale(s.cfg.ShotRange))
			if hit, ok := s.physics.Raycast(origin, forward, s.cfg.ShotRange, spatial.LayerShootable); ok {
				shot.To = hit.Point
				if e, ok := hit.Owner.(*Enemy); ok && e.Alive() {
					e.TakeDamage(s.cfg.Damage, origin, s.cfg.KnockbackForce)
					shot.Hits++
				}
			}
		}
	}

	s.lastShot = shot
	s.shotCount++
	s.fx.Play(CueMuzzle, origin)
	s.effect.Schedule(interval*s.cfg.EffectFraction, func() { s.fx.Stop(CueMuzzle) })
}
