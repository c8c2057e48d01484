package game

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"survivor/internal/config"
	"survivor/internal/game/spatial"
)

// DirectorConfig configures enemy spawning.
type DirectorConfig struct {
	SpawnInterval float64
	SpawnPoints   []SpawnPoint
}

// PoolStat is a point-in-time view of one pool.
type PoolStat struct {
	Type  EnemyType `json:"type" msgpack:"type"`
	Idle  int       `json:"idle" msgpack:"idle"`
	Live  int       `json:"live" msgpack:"live"`
	Total int       `json:"total" msgpack:"total"`
}

// Director owns the enemy pools, paces spawning from a level's queue,
// answers nearest-enemy queries and tallies kills.
type Director struct {
	cfg     DirectorConfig
	types   []EnemyType // sorted, for deterministic iteration
	pools   map[EnemyType]*Pool
	spawner *Spawner
	tracker *Tracker
	target  Target

	queue   []EnemyType
	timer   float64
	running bool
	kills   int
	score   int

	scratch []*Enemy

	onSpawn   func(e *Enemy)
	onKill    func(e *Enemy)
	onRecycle func(e *Enemy)
}

// NewDirector wires a director over one pool per type.
func NewDirector(cfg DirectorConfig, pools map[EnemyType]*Pool, spawner *Spawner, tracker *Tracker, target Target) (*Director, error) {
	if len(pools) == 0 {
		return nil, fmt.Errorf("director: %w", ErrMissingFactory)
	}
	if len(cfg.SpawnPoints) == 0 {
		return nil, fmt.Errorf("director: %w", ErrNoSpawnPoints)
	}
	if spawner == nil || tracker == nil || target == nil {
		return nil, fmt.Errorf("director: spawner, tracker and target: %w", ErrMissingCollaborator)
	}
	for typ, p := range pools {
		if p == nil {
			return nil, fmt.Errorf("director: pool %s: %w", typ, ErrMissingFactory)
		}
	}

	types := make([]EnemyType, 0, len(pools))
	for typ := range pools {
		types = append(types, typ)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return &Director{
		cfg:     cfg,
		types:   types,
		pools:   pools,
		spawner: spawner,
		tracker: tracker,
		target:  target,
	}, nil
}

// OnSpawn registers a callback fired after each successful spawn.
func (d *Director) OnSpawn(fn func(e *Enemy)) { d.onSpawn = fn }

// OnKill registers a callback fired after each kill is tallied.
func (d *Director) OnKill(fn func(e *Enemy)) { d.onKill = fn }

// OnRecycle registers a callback fired when a sunk enemy returns to its pool.
func (d *Director) OnRecycle(fn func(e *Enemy)) { d.onRecycle = fn }

// StartSpawning refills the queue from level in listed order and arms the
// spawn timer.
func (d *Director) StartSpawning(level config.LevelConfig) {
	d.queue = d.queue[:0]
	for _, s := range level.Spawns {
		for i := 0; i < s.Count; i++ {
			d.queue = append(d.queue, EnemyType(s.Type))
		}
	}
	d.timer = d.cfg.SpawnInterval
	d.running = true
	log.Printf("🧟 [Director] spawning started, %d enemies queued", len(d.queue))
}

// StopSpawning halts the spawn timer. Live enemies are untouched.
func (d *Director) StopSpawning() {
	if d.running {
		log.Printf("🧟 [Director] spawning stopped, %d still queued", len(d.queue))
	}
	d.running = false
}

func (d *Director) Running() bool { return d.running }

// QueueLen returns the number of enemies still waiting to spawn.
func (d *Director) QueueLen() int { return len(d.queue) }

// Dequeue removes and returns the next queued type.
func (d *Director) Dequeue() (EnemyType, bool) {
	if len(d.queue) == 0 {
		return "", false
	}
	typ := d.queue[0]
	d.queue = d.queue[1:]
	return typ, true
}

// Update advances the spawn timer. Nothing happens once the target is dead.
func (d *Director) Update(dt float64) {
	if !d.running || d.target.Health() <= 0 {
		return
	}
	d.timer -= dt
	if d.timer > 0 {
		return
	}
	d.timer = d.cfg.SpawnInterval

	if len(d.queue) == 0 {
		return
	}
	if _, err := d.SpawnType(d.queue[0]); err != nil {
		if errors.Is(err, ErrUnknownEnemyType) {
			d.Dequeue()
		}
		log.Printf("⚠️ [Director] spawn skipped: %v", err)
		return
	}
	d.Dequeue()
}

// SpawnType requests an enemy of typ from its pool, places it and starts
// tracking it.
func (d *Director) SpawnType(typ EnemyType) (*Enemy, error) {
	pool, ok := d.pools[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEnemyType, typ)
	}
	e, err := pool.Request()
	if err != nil {
		return nil, err
	}
	if _, err := d.spawner.Spawn(e, d.cfg.SpawnPoints); err != nil {
		pool.Release(e)
		return nil, err
	}
	e.SetTarget(d.target)
	e.SetReleaser(d)
	// Tracker first: deregistration must precede the kill tally.
	d.tracker.Register(e)
	e.Subscribe(d)

	if d.onSpawn != nil {
		d.onSpawn(e)
	}
	return e, nil
}

// OnEnemyDeath tallies the kill and the enemy's score.
func (d *Director) OnEnemyDeath(e *Enemy) {
	d.RegisterKill()
	d.score += e.Score()
	if d.onKill != nil {
		d.onKill(e)
	}
}

// ReleaseEnemy returns a sunk enemy to its pool.
func (d *Director) ReleaseEnemy(e *Enemy) {
	d.tracker.Forget(e)
	pool, ok := d.pools[e.Type()]
	if !ok || !pool.Release(e) {
		return
	}
	if d.onRecycle != nil {
		d.onRecycle(e)
	}
}

// NearestEnemy returns the closest alive enemy strictly within maxRange.
// Ties keep the first enemy found in type then spawn order.
func (d *Director) NearestEnemy(pos spatial.Vec3, maxRange float64) *Enemy {
	var best *Enemy
	bestDist := maxRange
	for _, typ := range d.types {
		for _, e := range d.pools[typ].Live() {
			if !e.Alive() {
				continue
			}
			if dist := spatial.Distance(pos, e.Position()); dist < bestDist {
				best, bestDist = e, dist
			}
		}
	}
	return best
}

// ReturnAllLiveToPool sends every alive enemy back to idle. Sinking enemies
// finish their own release.
func (d *Director) ReturnAllLiveToPool() int {
	n := 0
	for _, typ := range d.types {
		pool := d.pools[typ]
		d.scratch = append(d.scratch[:0], pool.Live()...)
		for _, e := range d.scratch {
			if !e.Alive() {
				continue
			}
			d.tracker.Forget(e)
			pool.Release(e)
			n++
		}
	}
	clear(d.scratch)
	return n
}

// Reset clears every pool, the queue and the tallies for a new match.
func (d *Director) Reset() {
	d.StopSpawning()
	d.queue = d.queue[:0]
	for _, typ := range d.types {
		d.pools[typ].ForceResetAll()
	}
	d.tracker.Clear()
	d.ResetKillCount()
	d.score = 0
}

// EachLive calls fn for every enemy in play, including sinking ones, in
// deterministic order. fn may release enemies.
func (d *Director) EachLive(fn func(e *Enemy)) {
	d.scratch = d.scratch[:0]
	for _, typ := range d.types {
		d.scratch = append(d.scratch, d.pools[typ].Live()...)
	}
	for _, e := range d.scratch {
		fn(e)
	}
	clear(d.scratch)
}

func (d *Director) RegisterKill()   { d.kills++ }
func (d *Director) ResetKillCount() { d.kills = 0 }
func (d *Director) Kills() int      { return d.kills }
func (d *Director) Score() int      { return d.score }

// AllDefeated reports whether no spawned enemy is still alive.
func (d *Director) AllDefeated() bool { return d.tracker.AllDefeated() }

// Types returns the pool types in iteration order.
func (d *Director) Types() []EnemyType { return d.types }

// Pool returns the pool for typ.
func (d *Director) Pool(typ EnemyType) (*Pool, bool) {
	p, ok := d.pools[typ]
	return p, ok
}

// PoolStats reports idle and live counts per type.
func (d *Director) PoolStats() []PoolStat {
	stats := make([]PoolStat, 0, len(d.types))
	for _, typ := range d.types {
		p := d.pools[typ]
		stats = append(stats, PoolStat{Type: typ, Idle: p.IdleCount(), Live: p.LiveCount(), Total: p.Total()})
	}
	return stats
}
