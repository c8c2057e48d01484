package game

// Tracker is the set of enemies currently in play. Membership ends on the
// enemy's death notification.
type Tracker struct {
	live map[*Enemy]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{live: make(map[*Enemy]struct{})}
}

// Register tracks e and subscribes to its death. Registering a tracked enemy
// is a no-op.
func (t *Tracker) Register(e *Enemy) bool {
	if _, ok := t.live[e]; ok {
		return false
	}
	t.live[e] = struct{}{}
	e.Subscribe(t)
	return true
}

// OnEnemyDeath deregisters the enemy.
func (t *Tracker) OnEnemyDeath(e *Enemy) {
	delete(t.live, e)
}

// Forget drops an enemy that left play without dying.
func (t *Tracker) Forget(e *Enemy) {
	delete(t.live, e)
}

// Contains reports whether e is tracked.
func (t *Tracker) Contains(e *Enemy) bool {
	_, ok := t.live[e]
	return ok
}

// AllDefeated reports whether no tracked enemy is left.
func (t *Tracker) AllDefeated() bool { return len(t.live) == 0 }

func (t *Tracker) Len() int { return len(t.live) }

// Clear forgets every tracked enemy.
func (t *Tracker) Clear() { clear(t.live) }
