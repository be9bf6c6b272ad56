package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Density.RhoMin >= cfg.Density.RhoMax {
		t.Errorf("embedded defaults violate rho_min < rho_max: %v >= %v", cfg.Density.RhoMin, cfg.Density.RhoMax)
	}
	if cfg.Derived.RhoMax32 != float32(cfg.Density.RhoMax) {
		t.Errorf("Derived.RhoMax32 = %v, want %v", cfg.Derived.RhoMax32, cfg.Density.RhoMax)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load with missing override file should fall back to defaults, got error: %v", err)
	}
	if cfg.Grid.UpdateInterval < 1 {
		t.Errorf("UpdateInterval = %d, want >= 1", cfg.Grid.UpdateInterval)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	if err := os.WriteFile(path, []byte("cost:\n  alpha: 9.5\n"), 0644); err != nil {
		t.Fatalf("writing override: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cost.Alpha != 9.5 {
		t.Errorf("Cost.Alpha = %v, want 9.5 (overridden)", cfg.Cost.Alpha)
	}
	// Fields not present in the override file keep their embedded defaults.
	if cfg.Density.RhoBar == 0 {
		t.Errorf("Density.RhoBar should still carry an embedded default, got 0")
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("density:\n  rho_min: 5\n  rho_max: 1\n"), 0644); err != nil {
		t.Fatalf("writing override: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load should reject rho_min >= rho_max")
	}
}

func TestFinalizeRecomputesDerived(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg.Density.RhoMax = cfg.Density.RhoMax * 2
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if cfg.Derived.RhoMax32 != float32(cfg.Density.RhoMax) {
		t.Errorf("Derived.RhoMax32 not recomputed: got %v, want %v", cfg.Derived.RhoMax32, cfg.Density.RhoMax)
	}
}

func TestFinalizeRejectsInvalidMutation(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Grid.UpdateInterval = 0
	if err := cfg.Finalize(); err == nil {
		t.Fatal("Finalize should reject update_interval < 1")
	}
}

func TestWriteYAMLRoundTrips(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Cost.Beta = 123.5

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load(written file): %v", err)
	}
	if reloaded.Cost.Beta != 123.5 {
		t.Errorf("reloaded Cost.Beta = %v, want 123.5", reloaded.Cost.Beta)
	}
}
