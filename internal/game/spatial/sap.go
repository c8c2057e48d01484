package spatial

import (
	"sort"
)

// SweepAndPrune is a one-axis broad phase with temporal coherence.
//
// Intervals are projected onto X and the endpoint list is kept between
// updates, so insertion sort runs close to O(n) while bodies move little.
type SweepAndPrune struct {
	endpoints  []Endpoint
	pairs      []Pair
	active     []uint32
	useInsSort bool
}

// Endpoint is one end of a projected interval.
type Endpoint struct {
	Value float64
	ID    uint32
	IsMin bool
}

// Pair holds two indices whose intervals overlap on the sweep axis.
type Pair struct {
	A, B uint32
}

// Circle is a planar bounding circle submitted to the broad phase.
type Circle struct {
	Center Vec3
	Radius float64
}

// NewSweepAndPrune preallocates buffers for maxEntities circles.
func NewSweepAndPrune(maxEntities int) *SweepAndPrune {
	return &SweepAndPrune{
		endpoints:  make([]Endpoint, 0, maxEntities*2),
		pairs:      make([]Pair, 0, maxEntities),
		active:     make([]uint32, 0, maxEntities/4+1),
		useInsSort: true,
	}
}

// Update rebuilds the endpoint list from circles and returns every pair
// whose X intervals overlap. Indices refer to positions in circles. The
// returned slice is reused on the next call.
func (s *SweepAndPrune) Update(circles []Circle) []Pair {
	s.pairs = s.pairs[:0]
	s.endpoints = s.endpoints[:0]

	for i, c := range circles {
		s.endpoints = append(s.endpoints,
			Endpoint{c.Center.X - c.Radius, uint32(i), true},
			Endpoint{c.Center.X + c.Radius, uint32(i), false},
		)
	}

	if s.useInsSort && len(s.endpoints) > 1 {
		insertionSortEndpoints(s.endpoints)
	} else {
		sort.Slice(s.endpoints, func(i, j int) bool {
			return s.endpoints[i].Value < s.endpoints[j].Value
		})
	}

	s.active = s.active[:0]
	for _, ep := range s.endpoints {
		if ep.IsMin {
			for _, other := range s.active {
				s.pairs = append(s.pairs, Pair{other, ep.ID})
			}
			s.active = append(s.active, ep.ID)
			continue
		}
		for i, id := range s.active {
			if id == ep.ID {
				s.active[i] = s.active[len(s.active)-1]
				s.active = s.active[:len(s.active)-1]
				break
			}
		}
	}

	return s.pairs
}

// SetInsertionSort toggles the insertion sort path. Disable it when the
// input order changes wholesale between updates.
func (s *SweepAndPrune) SetInsertionSort(enabled bool) {
	s.useInsSort = enabled
}

func insertionSortEndpoints(eps []Endpoint) {
	for i := 1; i < len(eps); i++ {
		key := eps[i]
		j := i - 1
		for j >= 0 && eps[j].Value > key.Value {
			eps[j+1] = eps[j]
			j--
		}
		eps[j+1] = key
	}
}
