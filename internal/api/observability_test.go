package api

import (
	"testing"

	"survivor/internal/game"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := g.Write(m); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return m.GetGauge().GetValue()
}

// TestStatsExporterDeltas tests that cumulative counters are exported once
func TestStatsExporterDeltas(t *testing.T) {
	var x statsExporter
	before := counterValue(t, eventLogTotal)

	stats := game.EngineStats{
		EventLog: game.EventLogStats{Total: 10, Dropped: 1},
		Pools:    []game.PoolStat{{Type: "exp", Idle: 7, Live: 3, Total: 10}},
	}
	x.Export(stats)
	x.Export(stats) // same sample adds nothing

	if got := counterValue(t, eventLogTotal) - before; got != 10 {
		t.Errorf("Expected +10 events, got %v", got)
	}

	stats.EventLog.Total = 15
	x.Export(stats)
	if got := counterValue(t, eventLogTotal) - before; got != 15 {
		t.Errorf("Expected +15 events, got %v", got)
	}

	if got := gaugeValue(t, poolIdle.WithLabelValues("exp")); got != 7 {
		t.Errorf("Expected idle gauge 7, got %v", got)
	}
	if got := gaugeValue(t, poolLive.WithLabelValues("exp")); got != 3 {
		t.Errorf("Expected live gauge 3, got %v", got)
	}
}

// TestMetricsHooks tests that engine callbacks land in the right collectors
func TestMetricsHooks(t *testing.T) {
	h := MetricsHooks()
	typ := game.EnemyType("hook")

	h.OnSpawn(typ)
	h.OnSpawn(typ)
	h.OnKill(typ)
	h.OnRecycle(typ)
	h.OnPoolGrow(typ, 4)
	h.OnPhaseChange(game.PhasePreparation, game.PhasePlaying)

	if got := counterValue(t, enemiesSpawned.WithLabelValues("hook")); got != 2 {
		t.Errorf("Expected 2 spawns, got %v", got)
	}
	if got := counterValue(t, enemiesKilled.WithLabelValues("hook")); got != 1 {
		t.Errorf("Expected 1 kill, got %v", got)
	}
	if got := counterValue(t, enemiesRecycled.WithLabelValues("hook")); got != 1 {
		t.Errorf("Expected 1 recycle, got %v", got)
	}
	if got := counterValue(t, poolGrowth.WithLabelValues("hook")); got != 4 {
		t.Errorf("Expected pool growth 4, got %v", got)
	}
	if got := gaugeValue(t, matchPhase); got != float64(game.PhasePlaying) {
		t.Errorf("Expected phase gauge %d, got %v", game.PhasePlaying, got)
	}
}
