package game

import (
	"errors"
	"testing"

	"survivor/internal/config"
	"survivor/internal/game/spatial"
)

func level(spawns ...config.SpawnCount) config.LevelConfig {
	return config.LevelConfig{Spawns: spawns}
}

// TestDirectorSpawnsInQueueOrder tests that the level queue spawns one type per interval
func TestDirectorSpawnsInQueueOrder(t *testing.T) {
	d := newTestDirector(t, &fakeTarget{health: 100})
	var spawned []EnemyType
	d.OnSpawn(func(e *Enemy) { spawned = append(spawned, e.Type()) })

	d.StartSpawning(level(
		config.SpawnCount{Type: "A", Count: 2},
		config.SpawnCount{Type: "B", Count: 1},
		config.SpawnCount{Type: "C", Count: 0},
	))
	if d.QueueLen() != 3 {
		t.Fatalf("Expected 3 queued, got %d", d.QueueLen())
	}

	d.Update(2.5)
	if len(spawned) != 0 {
		t.Fatal("Spawned before the interval elapsed")
	}
	d.Update(0.5)
	for i := 0; i < 4; i++ {
		d.Update(3)
	}

	want := []EnemyType{"A", "A", "B"}
	if len(spawned) != len(want) {
		t.Fatalf("Expected %v, got %v", want, spawned)
	}
	for i := range want {
		if spawned[i] != want[i] {
			t.Errorf("Spawn %d: expected %s, got %s", i, want[i], spawned[i])
		}
	}
	if d.QueueLen() != 0 {
		t.Errorf("Expected empty queue, got %d", d.QueueLen())
	}
	if d.tracker.Len() != 3 {
		t.Errorf("Expected 3 tracked, got %d", d.tracker.Len())
	}
}

// TestDirectorDropsUnknownType tests that a bad queue entry does not stall spawning
func TestDirectorDropsUnknownType(t *testing.T) {
	d := newTestDirector(t, &fakeTarget{health: 100})
	d.StartSpawning(level(
		config.SpawnCount{Type: "Z", Count: 1},
		config.SpawnCount{Type: "A", Count: 1},
	))

	d.Update(3)
	if d.QueueLen() != 1 {
		t.Fatalf("Expected unknown type dropped, queue %d", d.QueueLen())
	}
	d.Update(3)
	if d.QueueLen() != 0 || d.tracker.Len() != 1 {
		t.Errorf("Expected A spawned, queue %d tracked %d", d.QueueLen(), d.tracker.Len())
	}

	if _, err := d.SpawnType("Z"); !errors.Is(err, ErrUnknownEnemyType) {
		t.Errorf("Expected ErrUnknownEnemyType, got %v", err)
	}
}

// TestDirectorRetriesExhaustedPool tests that a failed request keeps the type queued
func TestDirectorRetriesExhaustedPool(t *testing.T) {
	calls := 0
	base := fakeFactory("A", quietEnemy())
	flaky := func() (*Enemy, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("asset not loaded")
		}
		return base()
	}
	pool, err := NewPool("A", flaky, 0, 1)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	d, err := NewDirector(DirectorConfig{
		SpawnInterval: 1,
		SpawnPoints:   []SpawnPoint{{}},
	}, map[EnemyType]*Pool{"A": pool}, NewSpawner(nil), NewTracker(), &fakeTarget{health: 100})
	if err != nil {
		t.Fatalf("NewDirector failed: %v", err)
	}

	d.StartSpawning(level(config.SpawnCount{Type: "A", Count: 1}))
	d.Update(1)
	if d.QueueLen() != 1 {
		t.Fatalf("Failed spawn should stay queued, queue %d", d.QueueLen())
	}
	d.Update(1)
	if d.QueueLen() != 0 || pool.LiveCount() != 1 {
		t.Errorf("Expected retry to spawn, queue %d live %d", d.QueueLen(), pool.LiveCount())
	}
}

// TestDirectorPausesWhenTargetDead tests that nothing spawns after the player dies
func TestDirectorPausesWhenTargetDead(t *testing.T) {
	target := &fakeTarget{health: 0}
	d := newTestDirector(t, target)
	d.StartSpawning(level(config.SpawnCount{Type: "A", Count: 3}))

	d.Update(10)
	if d.QueueLen() != 3 {
		t.Errorf("Expected no spawns, queue %d", d.QueueLen())
	}
}

func spawnAt(t *testing.T, d *Director, typ EnemyType, pos spatial.Vec3) *Enemy {
	t.Helper()
	e, err := d.SpawnType(typ)
	if err != nil {
		t.Fatalf("SpawnType(%s) failed: %v", typ, err)
	}
	e.Place(pos, 0)
	return e
}

// TestDirectorNearestEnemy tests range, liveness and tie-breaking
func TestDirectorNearestEnemy(t *testing.T) {
	d := newTestDirector(t, &fakeTarget{health: 100})
	a1 := spawnAt(t, d, "A", spatial.Vec3{X: 5})
	spawnAt(t, d, "A", spatial.Vec3{Z: 5})
	b := spawnAt(t, d, "B", spatial.Vec3{X: 3})

	if got := d.NearestEnemy(spatial.Vec3{}, 10); got != b {
		t.Errorf("Expected B at distance 3, got %v", got)
	}

	b.TakeDamage(1000, spatial.Vec3{}, 0)
	if got := d.NearestEnemy(spatial.Vec3{}, 10); got != a1 {
		t.Errorf("Expected the first-spawned A on a tie, got %v", got)
	}

	if got := d.NearestEnemy(spatial.Vec3{}, 5); got != nil {
		t.Errorf("Range should be exclusive, got enemy %d", got.ID())
	}
	if got := d.NearestEnemy(spatial.Vec3{}, 2); got != nil {
		t.Errorf("Expected nil out of range, got %d", got.ID())
	}
}

// TestDirectorDeathOrdering tests that the tracker forgets an enemy before the kill is tallied
func TestDirectorDeathOrdering(t *testing.T) {
	d := newTestDirector(t, &fakeTarget{health: 100})
	e := spawnAt(t, d, "C", spatial.Vec3{X: 1})

	checked := false
	d.OnKill(func(k *Enemy) {
		checked = true
		if d.tracker.Contains(k) {
			t.Error("Tracker still holds the enemy when the kill is tallied")
		}
		if d.Kills() != 1 {
			t.Errorf("Expected kills 1 inside the callback, got %d", d.Kills())
		}
	})

	e.TakeDamage(1000, spatial.Vec3{}, 0)

	if !checked {
		t.Fatal("Kill callback not fired")
	}
	if d.Score() != e.Score() {
		t.Errorf("Expected score %d, got %d", e.Score(), d.Score())
	}
	if !d.AllDefeated() {
		t.Error("Expected all defeated")
	}
}

// TestDirectorRecyclesAfterSink tests the full spawn, die, sink, release cycle
func TestDirectorRecyclesAfterSink(t *testing.T) {
	d := newTestDirector(t, &fakeTarget{health: 100})
	recycled := 0
	d.OnRecycle(func(e *Enemy) { recycled++ })

	e := spawnAt(t, d, "A", spatial.Vec3{X: 4})
	pool, _ := d.Pool("A")
	e.TakeDamage(1000, spatial.Vec3{}, 0)

	if !pool.IsLive(e) {
		t.Fatal("Sinking enemy should stay live until released")
	}
	d.EachLive(func(e *Enemy) { e.Update(1) })
	d.EachLive(func(e *Enemy) { e.Update(1) })

	if pool.IsLive(e) || recycled != 1 {
		t.Errorf("Expected release after sinking, live=%v recycled=%d", pool.IsLive(e), recycled)
	}
	if e.State() != EnemyIdle {
		t.Errorf("Expected idle, got %s", e.State())
	}
}

// TestDirectorReturnAllLiveToPool tests resolution cleanup
func TestDirectorReturnAllLiveToPool(t *testing.T) {
	d := newTestDirector(t, &fakeTarget{health: 100})
	spawnAt(t, d, "A", spatial.Vec3{X: 1})
	spawnAt(t, d, "B", spatial.Vec3{X: 2})
	dying := spawnAt(t, d, "C", spatial.Vec3{X: 3})
	dying.TakeDamage(1000, spatial.Vec3{}, 0)

	if n := d.ReturnAllLiveToPool(); n != 2 {
		t.Errorf("Expected 2 returned, got %d", n)
	}
	if d.tracker.Len() != 0 {
		t.Errorf("Expected nothing tracked, got %d", d.tracker.Len())
	}
	if d.NearestEnemy(spatial.Vec3{}, 100) != nil {
		t.Error("No enemy should be targetable")
	}

	pool, _ := d.Pool("C")
	if !pool.IsLive(dying) {
		t.Error("Sinking enemy should finish its own release")
	}
}

// TestDirectorReset tests the preparation reset
func TestDirectorReset(t *testing.T) {
	d := newTestDirector(t, &fakeTarget{health: 100})
	d.StartSpawning(level(config.SpawnCount{Type: "A", Count: 5}))
	d.Update(3)
	e := spawnAt(t, d, "B", spatial.Vec3{X: 1})
	e.TakeDamage(1000, spatial.Vec3{}, 0)

	d.Reset()

	if d.Running() || d.QueueLen() != 0 {
		t.Error("Reset should stop spawning and clear the queue")
	}
	if d.Kills() != 0 || d.Score() != 0 {
		t.Errorf("Expected zero tallies, got kills %d score %d", d.Kills(), d.Score())
	}
	for _, s := range d.PoolStats() {
		if s.Live != 0 || s.Idle != s.Total {
			t.Errorf("Pool %s not reset: %+v", s.Type, s)
		}
	}
}

// TestNewDirectorValidation tests required collaborators
func TestNewDirectorValidation(t *testing.T) {
	pools := map[EnemyType]*Pool{"A": newTestPool(t, "A", 1, 1)}
	points := []SpawnPoint{{}}

	if _, err := NewDirector(DirectorConfig{SpawnPoints: points}, nil, NewSpawner(nil), NewTracker(), &fakeTarget{}); !errors.Is(err, ErrMissingFactory) {
		t.Errorf("Expected ErrMissingFactory, got %v", err)
	}
	if _, err := NewDirector(DirectorConfig{}, pools, NewSpawner(nil), NewTracker(), &fakeTarget{}); !errors.Is(err, ErrNoSpawnPoints) {
		t.Errorf("Expected ErrNoSpawnPoints, got %v", err)
	}
	if _, err := NewDirector(DirectorConfig{SpawnPoints: points}, pools, nil, NewTracker(), &fakeTarget{}); !errors.Is(err, ErrMissingCollaborator) {
		t.Errorf("Expected ErrMissingCollaborator, got %v", err)
	}
}
