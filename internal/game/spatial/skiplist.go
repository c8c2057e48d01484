package spatial

import (
	"math/rand"
	"sync"
)

const (
	maxLevel         = 32
	levelProbability = 0.25
)

// Entry is a scored member of a SkipList.
type Entry struct {
	Key   string
	Score float64
}

// before orders entries by descending score, then ascending key.
func (e Entry) before(o Entry) bool {
	if e.Score != o.Score {
		return e.Score > o.Score
	}
	return e.Key < o.Key
}

type skipNode struct {
	entry Entry
	next  []*skipNode
	span  []int // nodes skipped by next[i]
}

// SkipList is a ranked set with O(log n) insert, remove and rank queries.
// Rank 1 holds the highest score. Safe for concurrent use.
type SkipList struct {
	mu     sync.RWMutex
	head   *skipNode
	level  int
	length int
	scores map[string]float64
	rng    *rand.Rand
}

// NewSkipList creates an empty list.
func NewSkipList() *SkipList {
	return &SkipList{
		head: &skipNode{
			next: make([]*skipNode, maxLevel),
			span: make([]int, maxLevel),
		},
		level:  1,
		scores: make(map[string]float64),
		rng:    rand.New(rand.NewSource(1)),
	}
}

func (sl *SkipList) randomLevel() int {
	level := 1
	for level < maxLevel && sl.rng.Float64() < levelProbability {
		level++
	}
	return level
}

// Insert adds key with score, repositioning it if already present.
func (sl *SkipList) Insert(key string, score float64) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if old, ok := sl.scores[key]; ok {
		if old == score {
			return
		}
		sl.remove(Entry{Key: key, Score: old})
	}
	sl.insert(Entry{Key: key, Score: score})
	sl.scores[key] = score
}

func (sl *SkipList) insert(e Entry) {
	var update [maxLevel]*skipNode
	var rank [maxLevel]int

	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		if i < sl.level-1 {
			rank[i] = rank[i+1]
		}
		for x.next[i] != nil && x.next[i].entry.before(e) {
			rank[i] += x.span[i]
			x = x.next[i]
		}
		update[i] = x
	}

	lvl := sl.randomLevel()
	if lvl > sl.level {
		for i := sl.level; i < lvl; i++ {
			rank[i] = 0
			update[i] = sl.head
			sl.head.span[i] = sl.length
		}
		sl.level = lvl
	}

	node := &skipNode{
		entry: e,
		next:  make([]*skipNode, lvl),
		span:  make([]int, lvl),
	}
	for i := 0; i < lvl; i++ {
		node.next[i] = update[i].next[i]
		update[i].next[i] = node
		node.span[i] = update[i].span[i] - (rank[0] - rank[i])
		update[i].span[i] = rank[0] - rank[i] + 1
	}
	for i := lvl; i < sl.level; i++ {
		update[i].span[i]++
	}
	sl.length++
}

// Remove deletes key. Returns false if it was not present.
func (sl *SkipList) Remove(key string) bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	score, ok := sl.scores[key]
	if !ok {
		return false
	}
	sl.remove(Entry{Key: key, Score: score})
	delete(sl.scores, key)
	return true
}

func (sl *SkipList) remove(e Entry) {
	var update [maxLevel]*skipNode

	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && x.next[i].entry.before(e) {
			x = x.next[i]
		}
		update[i] = x
	}

	x = x.next[0]
	if x == nil || x.entry.Key != e.Key {
		return
	}
	for i := 0; i < sl.level; i++ {
		if update[i].next[i] == x {
			update[i].span[i] += x.span[i] - 1
			update[i].next[i] = x.next[i]
		} else {
			update[i].span[i]--
		}
	}
	for sl.level > 1 && sl.head.next[sl.level-1] == nil {
		sl.level--
	}
	sl.length--
}

// Rank returns the 1-based rank of key, or 0 if absent.
func (sl *SkipList) Rank(key string) int {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	score, ok := sl.scores[key]
	if !ok {
		return 0
	}
	e := Entry{Key: key, Score: score}

	rank := 0
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && !e.before(x.next[i].entry) {
			rank += x.span[i]
			x = x.next[i]
		}
		if x != sl.head && x.entry.Key == key {
			return rank
		}
	}
	return 0
}

// Score returns the score stored for key.
func (sl *SkipList) Score(key string) (float64, bool) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	s, ok := sl.scores[key]
	return s, ok
}

// Range returns entries with rank in [start, end], 1-based and inclusive.
func (sl *SkipList) Range(start, end int) []Entry {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	if start < 1 {
		start = 1
	}
	if end > sl.length {
		end = sl.length
	}
	if start > end {
		return nil
	}

	traversed := 0
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && traversed+x.span[i] < start {
			traversed += x.span[i]
			x = x.next[i]
		}
	}

	out := make([]Entry, 0, end-start+1)
	for x = x.next[0]; x != nil && traversed < end; x = x.next[0] {
		traversed++
		out = append(out, x.entry)
	}
	return out
}

// Len returns the number of entries.
func (sl *SkipList) Len() int {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.length
}

// Clear removes every entry.
func (sl *SkipList) Clear() {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	for i := range sl.head.next {
		sl.head.next[i] = nil
		sl.head.span[i] = 0
	}
	sl.level = 1
	sl.length = 0
	sl.scores = make(map[string]float64)
}
