package game

import (
	"errors"
	"strings"
	"testing"

	"survivor/internal/config"
	"survivor/internal/game/spatial"
)

type statusRecorder struct {
	marks    []int
	statuses []string
	hidden   int
}

func (s *statusRecorder) ShowStatus(msg string) { s.statuses = append(s.statuses, msg) }
func (s *statusRecorder) HideStatus()           { s.hidden++ }
func (s *statusRecorder) Countdown(n int)       { s.marks = append(s.marks, n) }

func testMatchConfig() config.MatchConfig {
	return config.MatchConfig{
		PreGameDuration:    10,
		GameDuration:       180,
		ResolutionDuration: 10,
		KillTarget:         5,
		AutoRestart:        true,
		CountdownMarks:     []int{3, 2, 1},
		SpawnInterval:      3,
		Levels: []config.LevelConfig{
			{Spawns: []config.SpawnCount{{Type: "A", Count: 10}}},
			{Spawns: []config.SpawnCount{{Type: "B", Count: 10}}, KillTarget: 8},
		},
	}
}

func newTestMatch(t *testing.T, cfg config.MatchConfig) (*MatchDirector, *Director, *fakeTarget, *statusRecorder) {
	t.Helper()
	player := &fakeTarget{health: 100}
	d := newTestDirector(t, player)
	pres := &statusRecorder{}
	m, err := NewMatchDirector(cfg, player, d, pres)
	if err != nil {
		t.Fatalf("NewMatchDirector failed: %v", err)
	}
	return m, d, player, pres
}

// startPlaying drives a fresh match director into the first Playing tick.
func startPlaying(t *testing.T, m *MatchDirector) {
	t.Helper()
	m.Update(0.1) // Init -> Preparation
	m.Update(0.1) // entry tick skipped
	m.Update(m.Remaining())
	if m.Phase() != PhasePlaying {
		t.Fatalf("Expected playing, got %s", m.Phase())
	}
	m.Update(0.1) // entry tick skipped
}

// TestMatchEntersPreparationOnFirstUpdate tests the Init transition
func TestMatchEntersPreparationOnFirstUpdate(t *testing.T) {
	m, _, player, _ := newTestMatch(t, testMatchConfig())

	if m.Phase() != PhaseInit {
		t.Fatalf("Expected init, got %s", m.Phase())
	}
	m.Update(0.1)
	if m.Phase() != PhasePreparation {
		t.Fatalf("Expected preparation, got %s", m.Phase())
	}
	if player.resets != 1 {
		t.Errorf("Expected player reset on preparation, got %d", player.resets)
	}
	if m.Remaining() != 10 {
		t.Errorf("Expected 10s countdown, got %v", m.Remaining())
	}
}

// TestMatchSkipsEntryTick tests that the first tick in a phase is not evaluated
func TestMatchSkipsEntryTick(t *testing.T) {
	m, _, _, _ := newTestMatch(t, testMatchConfig())
	m.Update(0.1)

	m.Update(1000)
	if m.Phase() != PhasePreparation || m.Remaining() != 10 {
		t.Errorf("Entry tick should be skipped, phase %s remaining %v", m.Phase(), m.Remaining())
	}
}

// TestMatchCountdownMarks tests the 3, 2, 1 presenter marks
func TestMatchCountdownMarks(t *testing.T) {
	m, _, _, pres := newTestMatch(t, testMatchConfig())
	m.Update(0.1)
	m.Update(0.1)

	m.Update(6.5)
	if len(pres.marks) != 0 {
		t.Fatalf("Marks fired early: %v", pres.marks)
	}
	m.Update(0.5)
	m.Update(1)
	m.Update(1)
	m.Update(1)

	if len(pres.marks) != 3 || pres.marks[0] != 3 || pres.marks[1] != 2 || pres.marks[2] != 1 {
		t.Errorf("Expected marks [3 2 1], got %v", pres.marks)
	}
	if m.Phase() != PhasePlaying {
		t.Errorf("Expected playing, got %s", m.Phase())
	}
}

// TestMatchKillTargetWins tests resolution on the tick the kill target is reached
func TestMatchKillTargetWins(t *testing.T) {
	m, d, _, pres := newTestMatch(t, testMatchConfig())
	var resolved []MatchResult
	m.OnResolved(func(r MatchResult) { resolved = append(resolved, r) })
	startPlaying(t, m)

	for i := 0; i < 4; i++ {
		d.RegisterKill()
	}
	m.Update(0.1)
	if m.Phase() != PhasePlaying {
		t.Fatalf("Expected still playing at 4 kills, got %s", m.Phase())
	}

	d.RegisterKill()
	m.Update(0.1)
	if m.Phase() != PhaseResolution {
		t.Fatalf("Expected resolution at 5 kills, got %s", m.Phase())
	}

	r := m.LastResult()
	if !r.Win || r.Reason != ReasonKillTarget || r.Kills != 5 || r.Level != 1 {
		t.Errorf("Unexpected result %+v", r)
	}
	if len(resolved) != 1 || resolved[0].ID != r.ID || r.ID == "" {
		t.Errorf("Expected one resolved callback with the match ID, got %+v", resolved)
	}
	if m.Level() != 1 {
		t.Errorf("Expected level advance, got %d", m.Level())
	}
	if len(pres.statuses) != 1 || pres.statuses[0] != "Next Level: "+ReasonKillTarget {
		t.Errorf("Unexpected status %v", pres.statuses)
	}
	if d.Running() {
		t.Error("Spawning should stop on resolution")
	}
}

// TestMatchPlayerDied tests the loss condition and its precedence
func TestMatchPlayerDied(t *testing.T) {
	m, d, player, pres := newTestMatch(t, testMatchConfig())
	startPlaying(t, m)

	for i := 0; i < 5; i++ {
		d.RegisterKill()
	}
	player.health = 0
	m.Update(0.1)

	r := m.LastResult()
	if m.Phase() != PhaseResolution || r.Win || r.Reason != ReasonPlayerDied {
		t.Fatalf("Expected loss by death, got %s %+v", m.Phase(), r)
	}
	if m.Level() != 0 {
		t.Errorf("Level should not advance on a loss, got %d", m.Level())
	}
	if !strings.HasPrefix(pres.statuses[0], "Game Over: ") {
		t.Errorf("Unexpected status %q", pres.statuses[0])
	}
}

// TestMatchTimeExpired tests the timer loss condition
func TestMatchTimeExpired(t *testing.T) {
	m, _, _, _ := newTestMatch(t, testMatchConfig())
	startPlaying(t, m)

	m.Update(179)
	if m.Phase() != PhasePlaying {
		t.Fatalf("Expected still playing, got %s", m.Phase())
	}
	m.Update(1)
	if m.Phase() != PhaseResolution || m.LastResult().Reason != ReasonTimeExpired {
		t.Errorf("Expected time expiry, got %s %+v", m.Phase(), m.LastResult())
	}
	if m.Elapsed().Seconds() < 179.9 {
		t.Errorf("Expected about 180s elapsed, got %v", m.Elapsed())
	}
}

// TestMatchResolutionReturnsEnemies tests that live enemies leave play at resolution
func TestMatchResolutionReturnsEnemies(t *testing.T) {
	m, d, player, _ := newTestMatch(t, testMatchConfig())
	startPlaying(t, m)
	for i := 0; i < 3; i++ {
		if _, err := d.SpawnType("A"); err != nil {
			t.Fatalf("SpawnType failed: %v", err)
		}
	}

	player.health = 0
	m.Update(0.1)

	if d.NearestEnemy(spatial.Vec3{}, 1000) != nil {
		t.Error("No enemy should remain targetable")
	}
	for _, s := range d.PoolStats() {
		if s.Live != 0 {
			t.Errorf("Pool %s still has %d live", s.Type, s.Live)
		}
	}
}

// TestMatchAutoRestart tests the timed return to preparation
func TestMatchAutoRestart(t *testing.T) {
	m, _, player, pres := newTestMatch(t, testMatchConfig())
	var phases []Phase
	m.OnPhaseChange(func(from, to Phase) { phases = append(phases, to) })
	startPlaying(t, m)
	player.health = 0
	m.Update(0.1)

	m.Update(0.1)
	m.Update(10)
	if m.Phase() != PhasePreparation {
		t.Fatalf("Expected auto restart, got %s", m.Phase())
	}
	if player.Health() != 100 || player.resets != 2 {
		t.Errorf("Expected player reset, hp %d resets %d", player.Health(), player.resets)
	}
	if pres.hidden != 1 {
		t.Errorf("Expected status hidden once, got %d", pres.hidden)
	}

	want := []Phase{PhasePreparation, PhasePlaying, PhaseResolution, PhasePreparation}
	if len(phases) != len(want) {
		t.Fatalf("Expected phases %v, got %v", want, phases)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("Phase %d: expected %s, got %s", i, want[i], phases[i])
		}
	}
}

// TestMatchManualRestart tests waiting for Restart when auto restart is off
func TestMatchManualRestart(t *testing.T) {
	cfg := testMatchConfig()
	cfg.AutoRestart = false
	m, _, player, _ := newTestMatch(t, cfg)

	if m.Restart() {
		t.Error("Restart outside resolution should be refused")
	}
	startPlaying(t, m)
	player.health = 0
	m.Update(0.1)

	m.Update(0.1)
	m.Update(1000)
	if m.Phase() != PhaseResolution {
		t.Fatalf("Expected to wait in resolution, got %s", m.Phase())
	}
	if !m.Restart() {
		t.Fatal("Restart should be accepted in resolution")
	}
	m.Update(0.1)
	if m.Phase() != PhasePreparation {
		t.Errorf("Expected preparation after restart, got %s", m.Phase())
	}
}

// TestMatchLevelsWrap tests the level kill target override and wrap-around
func TestMatchLevelsWrap(t *testing.T) {
	m, d, _, pres := newTestMatch(t, testMatchConfig())
	startPlaying(t, m)
	firstID := m.MatchID()
	for i := 0; i < 5; i++ {
		d.RegisterKill()
	}
	m.Update(0.1)

	m.Update(0.1)
	m.Update(10)
	if m.KillTarget() != 8 {
		t.Errorf("Expected level 2 kill target 8, got %d", m.KillTarget())
	}
	m.Update(0.1)
	m.Update(m.Remaining())
	m.Update(0.1)
	if m.MatchID() == firstID {
		t.Error("Expected a new match ID")
	}
	for i := 0; i < 8; i++ {
		d.RegisterKill()
	}
	m.Update(0.1)

	if !m.LastResult().Win || m.LastResult().Level != 2 {
		t.Fatalf("Expected level 2 win, got %+v", m.LastResult())
	}
	if m.Level() != 0 {
		t.Errorf("Expected wrap to level 0, got %d", m.Level())
	}
	if last := pres.statuses[len(pres.statuses)-1]; last != "You Win: "+ReasonKillTarget {
		t.Errorf("Unexpected final status %q", last)
	}
}

// TestNewMatchDirectorValidation tests required inputs
func TestNewMatchDirectorValidation(t *testing.T) {
	d := newTestDirector(t, &fakeTarget{health: 100})
	cfg := testMatchConfig()

	if _, err := NewMatchDirector(cfg, nil, d, nil); err == nil {
		t.Error("Expected error without a player")
	}
	cfg.Levels = nil
	if _, err := NewMatchDirector(cfg, &fakeTarget{}, d, nil); err == nil {
		t.Error("Expected error without levels")
	}

	cfg = testMatchConfig()
	cfg.KillTarget = 0
	if _, err := NewMatchDirector(cfg, &fakeTarget{}, d, nil); !errors.Is(err, ErrInvalidMatchConfig) {
		t.Errorf("Expected ErrInvalidMatchConfig for zero kill target, got %v", err)
	}
}
