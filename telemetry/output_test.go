package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/error323/continuumcrowds/config"
)

func TestNewOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatalf("NewOutputManager(\"\") error: %v", err)
	}
	if om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, want nil (output disabled)", om)
	}

	// Every method must be a no-op on a nil *OutputManager.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Errorf("WriteTelemetry on nil: %v", err)
	}
	if err := om.WritePerf(PerfStats{}, 0); err != nil {
		t.Errorf("WritePerf on nil: %v", err)
	}
	if err := om.WriteEvent(Event{}); err != nil {
		t.Errorf("WriteEvent on nil: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close on nil: %v", err)
	}
}

func TestOutputManagerWritesFiles(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	defer om.Close()

	if om.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", om.Dir(), dir)
	}

	if err := om.WriteTelemetry(WindowStats{WindowEndTick: 10, AgentCount: 3}); err != nil {
		t.Fatalf("WriteTelemetry: %v", err)
	}
	if err := om.WriteTelemetry(WindowStats{WindowEndTick: 20, AgentCount: 5}); err != nil {
		t.Fatalf("WriteTelemetry (2nd): %v", err)
	}
	perfStats := PerfStats{
		AvgTickDuration: 5 * time.Millisecond,
		PhaseAvg:        map[string]time.Duration{PhaseSolve: 3 * time.Millisecond},
		PhasePct:        map[string]float64{PhaseSolve: 60},
	}
	if err := om.WritePerf(perfStats, 20); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.WriteEvent(Event{Type: EventObjectCreated, Tick: 1, AgentID: 7}); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	for _, name := range []string{"telemetry.csv", "perf.csv", "events.csv", "config.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", name)
		}
	}

	telemetryData, _ := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if lines := strings.Count(string(telemetryData), "\n"); lines < 3 {
		t.Errorf("telemetry.csv has %d lines, want >= 3 (header + 2 rows)", lines)
	}
}
