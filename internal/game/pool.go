package game

import (
	"fmt"
	"log"
)

// EnemyFactory builds one new idle enemy for a pool.
type EnemyFactory func() (*Enemy, error)

// Pool recycles enemies of one type. Every enemy it has built is in exactly
// one of idle or live.
type Pool struct {
	typ     EnemyType
	factory EnemyFactory
	batch   int

	idle   []*Enemy // FIFO
	live   []*Enemy // spawn order
	inLive map[*Enemy]struct{}
	total  int

	onGrow func(typ EnemyType, n int)
}

// NewPool creates a pool and prewarms it with initial enemies.
func NewPool(typ EnemyType, factory EnemyFactory, initial, batch int) (*Pool, error) {
	if factory == nil {
		return nil, fmt.Errorf("pool %s: %w", typ, ErrMissingFactory)
	}
	if batch <= 0 {
		batch = 10
	}
	p := &Pool{
		typ:     typ,
		factory: factory,
		batch:   batch,
		idle:    make([]*Enemy, 0, initial),
		inLive:  make(map[*Enemy]struct{}),
	}
	if initial > 0 && p.grow(initial) == 0 {
		return nil, fmt.Errorf("pool %s: prewarm: %w", typ, ErrPoolExhausted)
	}
	return p, nil
}

// OnGrow registers a callback fired after the pool builds new enemies.
func (p *Pool) OnGrow(fn func(typ EnemyType, n int)) { p.onGrow = fn }

func (p *Pool) grow(n int) int {
	built := 0
	for i := 0; i < n; i++ {
		e, err := p.factory()
		if err != nil {
			log.Printf("⚠️ [Pool %s] factory failed after %d of %d: %v", p.typ, built, n, err)
			break
		}
		p.idle = append(p.idle, e)
		built++
	}
	p.total += built
	if built > 0 && p.onGrow != nil {
		p.onGrow(p.typ, built)
	}
	return built
}

// Request moves the oldest idle enemy into play, growing the pool by one
// batch when no idle enemy is left.
func (p *Pool) Request() (*Enemy, error) {
	if len(p.idle) == 0 {
		if p.grow(p.batch) == 0 {
			return nil, fmt.Errorf("pool %s: %w", p.typ, ErrPoolExhausted)
		}
		log.Printf("📦 [Pool %s] grew to %d", p.typ, p.total)
	}

	e := p.idle[0]
	copy(p.idle, p.idle[1:])
	p.idle[len(p.idle)-1] = nil
	p.idle = p.idle[:len(p.idle)-1]

	p.live = append(p.live, e)
	p.inLive[e] = struct{}{}
	return e, nil
}

// Release returns a live enemy to idle. Releasing an enemy that is not live
// is a no-op and returns false.
func (p *Pool) Release(e *Enemy) bool {
	if _, ok := p.inLive[e]; !ok {
		return false
	}
	delete(p.inLive, e)
	for i, l := range p.live {
		if l == e {
			p.live = append(p.live[:i], p.live[i+1:]...)
			break
		}
	}
	e.deactivate()
	p.idle = append(p.idle, e)
	return true
}

// ForceResetAll returns every live enemy to idle and reports how many moved.
func (p *Pool) ForceResetAll() int {
	n := len(p.live)
	for _, e := range p.live {
		e.deactivate()
		p.idle = append(p.idle, e)
		delete(p.inLive, e)
	}
	clear(p.live)
	p.live = p.live[:0]
	return n
}

// IsLive reports whether e is currently in play from this pool.
func (p *Pool) IsLive(e *Enemy) bool {
	_, ok := p.inLive[e]
	return ok
}

// Live returns the live enemies in spawn order. The slice is owned by the
// pool and must not be retained across a Request or Release.
func (p *Pool) Live() []*Enemy { return p.live }

func (p *Pool) Type() EnemyType { return p.typ }
func (p *Pool) IdleCount() int  { return len(p.idle) }
func (p *Pool) LiveCount() int  { return len(p.live) }

// Total returns the number of enemies the pool has ever built.
func (p *Pool) Total() int { return p.total }
