package game

import (
	"sync/atomic"
	"time"
)

// MaxSnapshotEnemies caps the enemies copied into one snapshot.
const MaxSnapshotEnemies = 256

// EnemySnapshot is an immutable copy of enemy state.
type EnemySnapshot struct {
	ID      int64   `json:"id" msgpack:"id"`
	Type    string  `json:"type" msgpack:"type"`
	X       float64 `json:"x" msgpack:"x"`
	Y       float64 `json:"y" msgpack:"y"`
	Z       float64 `json:"z" msgpack:"z"`
	Yaw     float64 `json:"yaw" msgpack:"yaw"`
	HP      int     `json:"hp" msgpack:"hp"`
	MaxHP   int     `json:"maxHp" msgpack:"maxHp"`
	State   string  `json:"state" msgpack:"state"`
	Knocked bool    `json:"knocked" msgpack:"knocked"`
}

// PlayerSnapshot is an immutable copy of player state.
type PlayerSnapshot struct {
	X           float64 `json:"x" msgpack:"x"`
	Z           float64 `json:"z" msgpack:"z"`
	Yaw         float64 `json:"yaw" msgpack:"yaw"`
	HP          int     `json:"hp" msgpack:"hp"`
	MaxHP       int     `json:"maxHp" msgpack:"maxHp"`
	Dead        bool    `json:"dead" msgpack:"dead"`
	Walking     bool    `json:"walking" msgpack:"walking"`
	TargetID    int64   `json:"targetId,omitempty" msgpack:"targetId,omitempty"`
	FireMode    string  `json:"fireMode" msgpack:"fireMode"`
	FirePattern string  `json:"firePattern" msgpack:"firePattern"`
	Bursting    bool    `json:"bursting" msgpack:"bursting"`
	ShotCount   int     `json:"shotCount" msgpack:"shotCount"`
	LastShot    Shot    `json:"lastShot" msgpack:"lastShot"`
}

// MatchSnapshot is an immutable copy of match state.
type MatchSnapshot struct {
	ID         string  `json:"id,omitempty" msgpack:"id,omitempty"`
	Phase      string  `json:"phase" msgpack:"phase"`
	Remaining  float64 `json:"remaining" msgpack:"remaining"`
	Level      int     `json:"level" msgpack:"level"`
	Kills      int     `json:"kills" msgpack:"kills"`
	KillTarget int     `json:"killTarget" msgpack:"killTarget"`
	Score      int     `json:"score" msgpack:"score"`
	Queued     int     `json:"queued" msgpack:"queued"`
	Status     string  `json:"status,omitempty" msgpack:"status,omitempty"`
	Countdown  int     `json:"countdown,omitempty" msgpack:"countdown,omitempty"`
}

// GameSnapshot is a complete immutable game state for spectators.
type GameSnapshot struct {
	Sequence   uint64          `json:"sequence" msgpack:"sequence"`
	Timestamp  time.Time       `json:"timestamp" msgpack:"timestamp"`
	TickNumber uint64          `json:"tick" msgpack:"tick"`
	Player     PlayerSnapshot  `json:"player" msgpack:"player"`
	Match      MatchSnapshot   `json:"match" msgpack:"match"`
	Enemies    []EnemySnapshot `json:"enemies" msgpack:"enemies"`
	Pools      []PoolStat      `json:"pools" msgpack:"pools"`
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s *GameSnapshot) Clone() GameSnapshot {
	c := *s
	c.Enemies = append([]EnemySnapshot(nil), s.Enemies...)
	c.Pools = append([]PoolStat(nil), s.Pools...)
	return c
}

// SnapshotPool pre-allocates snapshots to avoid GC pressure.
// Triple buffered: the tick writes one slot while readers copy the last
// published one under the engine's read lock.
type SnapshotPool struct {
	snapshots [3]GameSnapshot
	writeIdx  uint32 // atomic
	readIdx   uint32 // atomic
	sequence  uint64 // atomic
}

// NewSnapshotPool creates a pool with pre-allocated slices
func NewSnapshotPool() *SnapshotPool {
	pool := &SnapshotPool{}
	for i := range pool.snapshots {
		pool.snapshots[i] = GameSnapshot{
			Enemies: make([]EnemySnapshot, 0, MaxSnapshotEnemies),
			Pools:   make([]PoolStat, 0, 4),
		}
	}
	return pool
}

// AcquireWrite returns the next write slot with slices reset.
func (p *SnapshotPool) AcquireWrite() *GameSnapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	snap := &p.snapshots[idx]

	snap.Enemies = snap.Enemies[:0]
	snap.Pools = snap.Pools[:0]
	snap.Player = PlayerSnapshot{}
	snap.Match = MatchSnapshot{}

	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = time.Now()
	return snap
}

// PublishWrite makes the last acquired slot the read slot.
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// AcquireRead returns the latest published snapshot.
func (p *SnapshotPool) AcquireRead() *GameSnapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return &p.snapshots[idx]
}
