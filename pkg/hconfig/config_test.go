package hconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.AnchorSize != 500 {
		t.Errorf("expected anchor size 500, got %d", cfg.AnchorSize)
	}
	if cfg.GammaMin != 2.01 {
		t.Errorf("expected gamma_min 2.01, got %v", cfg.GammaMin)
	}
	if cfg.DualSolutionSearch {
		t.Error("expected dual solution search off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.AnchorSize != 500 {
		t.Errorf("expected default config, got anchor size %d", cfg.AnchorSize)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
anchor_size: 100
phase1_rounds: 4
dual_solution_search: true
seed: 42
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.AnchorSize != 100 {
		t.Errorf("expected anchor_size 100, got %d", cfg.AnchorSize)
	}
	if cfg.PhaseOneRounds != 4 {
		t.Errorf("expected phase1_rounds 4, got %d", cfg.PhaseOneRounds)
	}
	if !cfg.DualSolutionSearch {
		t.Error("expected dual_solution_search true")
	}
	if cfg.Seed != 42 {
		t.Errorf("expected seed 42, got %d", cfg.Seed)
	}
	// fields absent from YAML keep their default
	if cfg.GammaMin != 2.01 {
		t.Errorf("expected gamma_min to keep default 2.01, got %v", cfg.GammaMin)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := DefaultConfig()
	cfg.AnchorSize = 250
	cfg.Seed = 7

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.AnchorSize != 250 || loaded.Seed != 7 {
		t.Errorf("round trip mismatch: got %+v", loaded)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GammaMin = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for gamma_min <= 2.0")
	}

	cfg = DefaultConfig()
	cfg.AnchorSize = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for zero anchor size")
	}
}
