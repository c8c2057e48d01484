package spatial

import (
	"math"
	"sync"
	"testing"
)

func TestRotateTowardsClampsStep(t *testing.T) {
	got := RotateTowards(0, math.Pi/2, 0.1)
	if math.Abs(got-0.1) > 1e-9 {
		t.Errorf("Expected 0.1, got %f", got)
	}

	got = RotateTowards(0, 0.05, 0.1)
	if got != 0.05 {
		t.Errorf("Expected to snap to target 0.05, got %f", got)
	}

	// Shortest way round crosses ±π.
	got = RotateTowards(math.Pi-0.05, -math.Pi+0.05, 0.2)
	if math.Abs(got-(-math.Pi+0.05)) > 1e-9 {
		t.Errorf("Expected wrap to %f, got %f", -math.Pi+0.05, got)
	}
}

func TestForwardAndYawRoundTrip(t *testing.T) {
	for _, yaw := range []float64{0, 0.5, -1.2, math.Pi / 2, 3} {
		got := Yaw(Forward(yaw))
		if math.Abs(NormalizeAngle(got-yaw)) > 1e-9 {
			t.Errorf("Yaw(Forward(%f)) = %f", yaw, got)
		}
	}
	if f := Forward(0); f.Z != 1 || f.X != 0 {
		t.Errorf("Expected yaw 0 to face +Z, got %+v", f)
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	if v := (Vec3{}).Normalize(); v != (Vec3{}) {
		t.Errorf("Expected zero vector, got %+v", v)
	}
	v := Vec3{X: 3, Z: 4}.Normalize()
	if math.Abs(v.Len()-1) > 1e-9 {
		t.Errorf("Expected unit length, got %f", v.Len())
	}
}

func TestGridQueryRadius(t *testing.T) {
	g := NewGrid(Vec3{X: -30, Z: -30}, 60, 60, 5, 64)
	g.Insert(1, Vec3{X: 0, Z: 0})
	g.Insert(2, Vec3{X: 2, Z: 1})
	g.Insert(3, Vec3{X: 25, Z: 25})
	g.Insert(4, Vec3{X: 500, Z: 500}) // clamped into a border cell

	found := map[uint32]bool{}
	for _, id := range g.QueryRadius(Vec3{}, 3) {
		found[id] = true
	}
	if !found[1] || !found[2] {
		t.Errorf("Expected ids 1 and 2 near origin, got %v", found)
	}
	if found[3] {
		t.Error("Did not expect far id 3")
	}

	border := g.QueryRadius(Vec3{X: 29, Z: 29}, 1)
	hasFour := false
	for _, id := range border {
		if id == 4 {
			hasFour = true
		}
	}
	if !hasFour {
		t.Error("Expected clamped id 4 in border cell")
	}

	g.Clear()
	if g.Len() != 0 || len(g.QueryRadius(Vec3{}, 3)) != 0 {
		t.Error("Expected empty grid after Clear")
	}
}

func TestSweepAndPruneFindsOverlaps(t *testing.T) {
	s := NewSweepAndPrune(8)
	circles := []Circle{
		{Center: Vec3{X: 0}, Radius: 1},
		{Center: Vec3{X: 1.5}, Radius: 1},
		{Center: Vec3{X: 10}, Radius: 1},
	}
	pairs := s.Update(circles)
	if len(pairs) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(pairs))
	}
	p := pairs[0]
	if !(p.A == 0 && p.B == 1) && !(p.A == 1 && p.B == 0) {
		t.Errorf("Expected pair (0,1), got %+v", p)
	}

	circles[2].Center.X = 1.5
	if pairs = s.Update(circles); len(pairs) != 3 {
		t.Errorf("Expected 3 pairs after move, got %d", len(pairs))
	}
}

func TestFlowFieldPointsAtGoal(t *testing.T) {
	f := NewFlowField(Vec3{X: -10, Z: -10}, 20, 20, 1)
	f.Generate(Vec3{X: 5, Z: 0})

	dir := f.Lookup(Vec3{X: -5, Z: 0.5})
	if dir.X <= 0 {
		t.Errorf("Expected flow toward +X, got %+v", dir)
	}
	if c := f.Cost(Vec3{X: 5, Z: 0}); c != 0 {
		t.Errorf("Expected zero cost at goal, got %f", c)
	}
	if d := f.Lookup(Vec3{X: 100, Z: 0}); d != (Vec3{}) {
		t.Errorf("Expected zero flow outside field, got %+v", d)
	}
}

func TestFlowFieldRoutesAroundWall(t *testing.T) {
	f := NewFlowField(Vec3{}, 10, 10, 1)
	for z := 0.5; z < 8; z++ {
		f.SetCellBlocked(Vec3{X: 5.5, Z: z}, true)
	}
	f.Generate(Vec3{X: 8.5, Z: 0.5})

	if math.IsInf(f.Cost(Vec3{X: 1.5, Z: 0.5}), 1) {
		t.Fatal("Expected goal reachable around the wall")
	}
	// Direct distance is 7; the detour is longer.
	if c := f.Cost(Vec3{X: 1.5, Z: 0.5}); c <= 7 {
		t.Errorf("Expected detour cost > 7, got %f", c)
	}
}

func TestFlowFieldsShareGoalCell(t *testing.T) {
	m := NewFlowFields(Vec3{}, 10, 10, 1)
	a := m.For(Vec3{X: 2.1, Z: 2.1})
	b := m.For(Vec3{X: 2.9, Z: 2.9})
	if a != b {
		t.Error("Expected goals in one cell to share a field")
	}
	m.For(Vec3{X: 7, Z: 7})
	if m.Len() != 2 {
		t.Errorf("Expected 2 fields, got %d", m.Len())
	}
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue[int](3)
	if q.Cap() != 4 {
		t.Errorf("Expected capacity rounded to 4, got %d", q.Cap())
	}
	for i := 0; i < 4; i++ {
		if !q.TryPush(i) {
			t.Fatalf("Push %d failed", i)
		}
	}
	if q.TryPush(99) {
		t.Error("Expected push to fail on full queue")
	}

	var got []int
	q.Drain(func(v int) { got = append(got, v) })
	for i, v := range got {
		if v != i {
			t.Errorf("Expected %d at %d, got %d", i, i, v)
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Error("Expected empty queue")
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := NewQueue[int](1024)
	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				for !q.TryPush(i) {
				}
			}
		}()
	}
	wg.Wait()

	if n := q.Drain(func(int) {}); n != 800 {
		t.Errorf("Expected 800 items, got %d", n)
	}
}

func TestSkipListRanking(t *testing.T) {
	sl := NewSkipList()
	sl.Insert("a", 10)
	sl.Insert("b", 30)
	sl.Insert("c", 20)
	sl.Insert("d", 20)

	want := []string{"b", "c", "d", "a"}
	for i, e := range sl.Range(1, 10) {
		if e.Key != want[i] {
			t.Errorf("Rank %d: expected %s, got %s", i+1, want[i], e.Key)
		}
	}
	for i, k := range want {
		if r := sl.Rank(k); r != i+1 {
			t.Errorf("Rank(%s): expected %d, got %d", k, i+1, r)
		}
	}

	sl.Insert("a", 40)
	if r := sl.Rank("a"); r != 1 {
		t.Errorf("Expected a to move to rank 1, got %d", r)
	}
	if sl.Len() != 4 {
		t.Errorf("Expected 4 entries after update, got %d", sl.Len())
	}

	if !sl.Remove("c") || sl.Remove("c") {
		t.Error("Expected single successful removal")
	}
	if r := sl.Rank("d"); r != 3 {
		t.Errorf("Expected d at rank 3, got %d", r)
	}
	if got := sl.Range(2, 2); len(got) != 1 || got[0].Key != "b" {
		t.Errorf("Expected b at rank 2, got %+v", got)
	}
}

func TestSkipListManyEntries(t *testing.T) {
	sl := NewSkipList()
	for i := 0; i < 500; i++ {
		sl.Insert(string(rune('A'+i%26))+string(rune('a'+i/26)), float64(i))
	}
	for r := 1; r <= 500; r += 37 {
		e := sl.Range(r, r)
		if len(e) != 1 {
			t.Fatalf("Expected entry at rank %d", r)
		}
		if got := sl.Rank(e[0].Key); got != r {
			t.Errorf("Rank mismatch: expected %d, got %d", r, got)
		}
	}
}
