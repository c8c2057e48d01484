package config

import (
	"math"
	"testing"
)

func TestParseLevels(t *testing.T) {
	levels, err := ParseLevels("A:2,B:1,C:0; A:5,B:3,K=8")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("Expected 2 levels, got %d", len(levels))
	}

	first := levels[0]
	want := []SpawnCount{{"A", 2}, {"B", 1}, {"C", 0}}
	if len(first.Spawns) != len(want) {
		t.Fatalf("Expected %d spawn entries, got %d", len(want), len(first.Spawns))
	}
	for i, s := range want {
		if first.Spawns[i] != s {
			t.Errorf("Entry %d: expected %+v, got %+v", i, s, first.Spawns[i])
		}
	}
	if first.Total() != 3 {
		t.Errorf("Expected total 3, got %d", first.Total())
	}
	if first.KillTarget != 0 {
		t.Errorf("Expected no kill target override, got %d", first.KillTarget)
	}
	if levels[1].KillTarget != 8 {
		t.Errorf("Expected kill target 8, got %d", levels[1].KillTarget)
	}
}

func TestParseLevelsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"missing count", "A"},
		{"negative count", "A:-1"},
		{"bad count", "A:x"},
		{"bad kill target", "A:1,K=0"},
		{"missing name", ":3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLevels(tt.input); err == nil {
				t.Errorf("Expected error for %q", tt.input)
			}
		})
	}
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
	if len(cfg.Match.Levels) != 3 {
		t.Errorf("Expected 3 default levels, got %d", len(cfg.Match.Levels))
	}
	if cfg.Match.KillTarget != 50 || cfg.Match.PreGameDuration != 10 || cfg.Match.GameDuration != 180 {
		t.Errorf("Unexpected match defaults: %+v", cfg.Match)
	}
	if cfg.Player.MaxHealth != 100 || cfg.Player.ShotCooldown != 0.3 {
		t.Errorf("Unexpected player defaults: %+v", cfg.Player)
	}
}

func TestValidateRejectsUnknownType(t *testing.T) {
	cfg := Default()
	cfg.Match.Levels = []LevelConfig{{Spawns: []SpawnCount{{"Z", 1}}}}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for unknown enemy type")
	}
}

// TestValidateRejectsMatchPacing tests that zero kill targets and spawn intervals fail fast
func TestValidateRejectsMatchPacing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"zero kill target", func(c *AppConfig) { c.Match.KillTarget = 0 }},
		{"negative kill target", func(c *AppConfig) { c.Match.KillTarget = -5 }},
		{"zero spawn interval", func(c *AppConfig) { c.Match.SpawnInterval = 0 }},
		{"negative level kill target", func(c *AppConfig) { c.Match.Levels[0].KillTarget = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TICK_RATE", "60")
	t.Setenv("AUTO_RESTART", "false")
	t.Setenv("FIRE_PATTERN", "BURST")
	t.Setenv("LEVELS", "A:1")
	t.Setenv("DEBUG_ADDR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Simulation.TickRate != 60 {
		t.Errorf("Expected tick rate 60, got %d", cfg.Simulation.TickRate)
	}
	if cfg.Match.AutoRestart {
		t.Error("Expected AutoRestart false")
	}
	if cfg.Player.FirePattern != "burst" {
		t.Errorf("Expected burst pattern, got %q", cfg.Player.FirePattern)
	}
	if len(cfg.Match.Levels) != 1 {
		t.Errorf("Expected 1 level, got %d", len(cfg.Match.Levels))
	}
	if cfg.Observability.DebugAddr != "" {
		t.Errorf("Expected debug server disabled, got %q", cfg.Observability.DebugAddr)
	}
}

func TestLoadRejectsBadLevels(t *testing.T) {
	t.Setenv("LEVELS", "A:oops")
	if _, err := Load(); err == nil {
		t.Error("Expected LEVELS parse error")
	}
}

func TestRingSpawnPointsFaceCenter(t *testing.T) {
	for _, p := range RingSpawnPoints(4, 10) {
		r := math.Hypot(p.X, p.Z)
		if math.Abs(r-10) > 1e-9 {
			t.Errorf("Expected radius 10, got %f", r)
		}
		// Forward(yaw) = (sin, cos) must point back at the origin.
		fx, fz := math.Sin(p.Yaw), math.Cos(p.Yaw)
		if fx*p.X+fz*p.Z >= 0 {
			t.Errorf("Spawn point %+v does not face the center", p)
		}
	}
}
