package game

import (
	"testing"

	"survivor/internal/config"
	"survivor/internal/game/spatial"
)

// fakeBody records what actors do to their physics handle.
type fakeBody struct {
	pos         spatial.Vec3
	vel         spatial.Vec3
	yaw         float64
	impulses    []spatial.Vec3
	kinematic   bool
	constrained bool
	trigger     bool
	active      bool
}

func (b *fakeBody) Position() spatial.Vec3     { return b.pos }
func (b *fakeBody) SetPosition(p spatial.Vec3) { b.pos = p }
func (b *fakeBody) Translate(d spatial.Vec3)   { b.pos = b.pos.Add(d) }
func (b *fakeBody) Yaw() float64               { return b.yaw }
func (b *fakeBody) SetYaw(yaw float64)         { b.yaw = yaw }
func (b *fakeBody) Velocity() spatial.Vec3     { return b.vel }
func (b *fakeBody) SetVelocity(v spatial.Vec3) { b.vel = v }
func (b *fakeBody) AddImpulse(i spatial.Vec3)  { b.impulses = append(b.impulses, i) }
func (b *fakeBody) Kinematic() bool            { return b.kinematic }
func (b *fakeBody) SetKinematic(k bool)        { b.kinematic = k }
func (b *fakeBody) Constrained() bool          { return b.constrained }
func (b *fakeBody) ClearConstraints()          { b.constrained = false }
func (b *fakeBody) SetTrigger(t bool)          { b.trigger = t }
func (b *fakeBody) SetActive(a bool)           { b.active = a }

type fakeNav struct {
	dest      spatial.Vec3
	following bool
}

func (n *fakeNav) SetDestination(p spatial.Vec3) { n.dest = p }
func (n *fakeNav) SetFollowing(on bool)          { n.following = on }
func (n *fakeNav) Following() bool               { return n.following }

// fakePhysics returns canned query results.
type fakePhysics struct {
	ray      spatial.Hit
	rayOK    bool
	overlap  []spatial.Hit
	rayCalls int
}

func (p *fakePhysics) Raycast(origin, dir spatial.Vec3, maxDist float64, mask spatial.Layer) (spatial.Hit, bool) {
	p.rayCalls++
	return p.ray, p.rayOK
}

func (p *fakePhysics) OverlapSphere(center spatial.Vec3, radius float64, mask spatial.Layer) []spatial.Hit {
	return p.overlap
}

// fakeTarget stands in for the player.
type fakeTarget struct {
	pos    spatial.Vec3
	health int
	taken  int
	resets int
}

func (t *fakeTarget) Position() spatial.Vec3 { return t.pos }
func (t *fakeTarget) Health() int            { return t.health }

func (t *fakeTarget) TakeDamage(amount int) {
	t.health -= amount
	t.taken += amount
}

func (t *fakeTarget) ResetState() {
	t.health = 100
	t.resets++
}

type deathCounter struct {
	deaths []*Enemy
}

func (c *deathCounter) OnEnemyDeath(e *Enemy) { c.deaths = append(c.deaths, e) }

type releaseRecorder struct {
	released []*Enemy
}

func (r *releaseRecorder) ReleaseEnemy(e *Enemy) { r.released = append(r.released, e) }

// quietEnemy is the default enemy without the random wander hop.
func quietEnemy() config.EnemyConfig {
	cfg := config.DefaultEnemy()
	cfg.WanderForce = 0
	return cfg
}

func newTestEnemy(t testing.TB, cfg config.EnemyConfig) (*Enemy, *fakeBody, *fakeNav, *Recorder) {
	t.Helper()
	body := &fakeBody{}
	nav := &fakeNav{}
	rec := NewRecorder()
	e, err := NewEnemy("A", cfg, EnemyDeps{Body: body, Nav: nav, Animator: rec, Effects: rec})
	if err != nil {
		t.Fatalf("NewEnemy failed: %v", err)
	}
	return e, body, nav, rec
}

func fakeFactory(typ EnemyType, cfg config.EnemyConfig) EnemyFactory {
	return func() (*Enemy, error) {
		return NewEnemy(typ, cfg, EnemyDeps{Body: &fakeBody{}, Nav: &fakeNav{}})
	}
}

func newTestPool(t testing.TB, typ EnemyType, initial, batch int) *Pool {
	t.Helper()
	p, err := NewPool(typ, fakeFactory(typ, quietEnemy()), initial, batch)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	return p
}

// newTestDirector builds a director over pools A, B and C with a single
// spawn point at (0, 0, 20).
func newTestDirector(t testing.TB, target Target) *Director {
	t.Helper()
	pools := map[EnemyType]*Pool{
		"A": newTestPool(t, "A", 2, 2),
		"B": newTestPool(t, "B", 2, 2),
		"C": newTestPool(t, "C", 2, 2),
	}
	d, err := NewDirector(DirectorConfig{
		SpawnInterval: 3,
		SpawnPoints:   []SpawnPoint{{Position: spatial.Vec3{Z: 20}}},
	}, pools, NewSpawner(nil), NewTracker(), target)
	if err != nil {
		t.Fatalf("NewDirector failed: %v", err)
	}
	return d
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}
