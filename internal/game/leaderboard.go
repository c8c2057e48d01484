package game

import (
	"sync"

	"survivor/internal/game/spatial"
)

// MaxBoardEntries caps how many match results the board keeps.
const MaxBoardEntries = 1000

// MatchBoard ranks finished matches by score, then by match ID.
//
// Operations:
//   - Record: O(log n)
//   - Rank: O(log n)
//   - Top: O(log n + k)
type MatchBoard struct {
	mu      sync.RWMutex
	ranks   *spatial.SkipList
	results map[string]MatchResult
}

// BoardEntry is a ranked match result.
type BoardEntry struct {
	Rank int `json:"rank" msgpack:"rank"`
	MatchResult
}

func NewMatchBoard() *MatchBoard {
	return &MatchBoard{
		ranks:   spatial.NewSkipList(),
		results: make(map[string]MatchResult),
	}
}

// Record adds a result. Results without an ID are ignored. When the board
// is full the lowest ranked result is evicted.
func (b *MatchBoard) Record(r MatchResult) {
	if r.ID == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.results[r.ID] = r
	b.ranks.Insert(r.ID, float64(r.Score))

	for b.ranks.Len() > MaxBoardEntries {
		last := b.ranks.Range(b.ranks.Len(), b.ranks.Len())
		if len(last) == 0 {
			break
		}
		b.ranks.Remove(last[0].Key)
		delete(b.results, last[0].Key)
	}
}

// Rank returns the 1-based rank of a match, or 0 if unknown.
func (b *MatchBoard) Rank(id string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ranks.Rank(id)
}

// Get returns a recorded result.
func (b *MatchBoard) Get(id string) (MatchResult, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.results[id]
	return r, ok
}

// Top returns the n best results.
func (b *MatchBoard) Top(n int) []BoardEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entries := b.ranks.Range(1, n)
	out := make([]BoardEntry, 0, len(entries))
	for i, e := range entries {
		out = append(out, BoardEntry{Rank: i + 1, MatchResult: b.results[e.Key]})
	}
	return out
}

// Len returns the number of recorded results.
func (b *MatchBoard) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ranks.Len()
}
