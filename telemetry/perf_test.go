package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollectorBasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseIndex)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseThink)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}
	if stats.PhaseAvg[PhaseIndex] <= 0 {
		t.Error("expected index phase to be tracked")
	}
	if stats.PhaseAvg[PhaseThink] <= 0 {
		t.Error("expected think phase to be tracked")
	}
	if stats.PhaseAvg[PhaseCollide] != 0 {
		t.Error("collide phase was never started")
	}
	if stats.MinTickDuration > stats.MaxTickDuration {
		t.Errorf("min %v > max %v", stats.MinTickDuration, stats.MaxTickDuration)
	}
}

func TestPerfCollectorRollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseMove)
		time.Sleep(50 * time.Microsecond)
		pc.EndTick()
	}

	if pc.sampleCount != 5 {
		t.Errorf("sampleCount = %d, want window size 5", pc.sampleCount)
	}
	stats := pc.Stats()
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollectorEmpty(t *testing.T) {
	stats := NewPerfCollector(0).Stats()
	if stats.AvgTickDuration != 0 || stats.TicksPerSecond != 0 {
		t.Errorf("empty stats = %+v", stats)
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	stats := PerfStats{
		AvgTickDuration: 2 * time.Millisecond,
		TicksPerSecond:  500,
	}
	stats.PhasePct[PhasePerceive] = 40
	stats.PhasePct[PhaseEvolve] = 5

	row := stats.ToCSV(600, 2)
	if row.Tick != 600 || row.Generation != 2 {
		t.Errorf("row header = %d/%d", row.Tick, row.Generation)
	}
	if row.AvgTickUS != 2000 {
		t.Errorf("AvgTickUS = %d, want 2000", row.AvgTickUS)
	}
	if row.PerceivePct != 40 || row.EvolvePct != 5 {
		t.Errorf("phase pct = %v/%v", row.PerceivePct, row.EvolvePct)
	}
}

func TestPhaseNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, ph := range Phases() {
		name := ph.String()
		if name == "unknown" || seen[name] {
			t.Errorf("phase %d has bad name %q", ph, name)
		}
		seen[name] = true
	}
}
