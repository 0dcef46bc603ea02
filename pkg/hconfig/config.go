// Package hconfig handles loading and saving the hyperbolic embedding
// configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/hmap/config.yaml
package hconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EmbeddingConfig controls the AngularOptimizer's schedule and the
// StatsEstimator's clamps. The zero value is not valid; use DefaultConfig.
type EmbeddingConfig struct {
	// AnchorSize is K, the number of highest-degree nodes placed by phase-1
	// gradient ascent. The stricter of the two historical variants (500,
	// paired with GammaMin 2.01) is mandated as the default.
	AnchorSize int `yaml:"anchor_size,omitempty"`

	// PhaseOneRounds is the number of full sweeps over the anchor set.
	PhaseOneRounds int `yaml:"phase1_rounds,omitempty"`

	// PhaseTwoBatchSize bounds how many tail nodes are placed per batch
	// before a cancellation check.
	PhaseTwoBatchSize int `yaml:"phase2_batch_size,omitempty"`

	// LearningRateInit, LearningRateMin, LearningRateMax bound the gradient
	// ascent step size inside a single node's angle optimization.
	LearningRateInit float64 `yaml:"lr_init,omitempty"`
	LearningRateMin  float64 `yaml:"lr_min,omitempty"`
	LearningRateMax  float64 `yaml:"lr_max,omitempty"`

	// StepClamp bounds the per-iteration angle update.
	StepClamp float64 `yaml:"step_clamp,omitempty"`

	// GradientTol is the early-stop threshold on |gradient|.
	GradientTol float64 `yaml:"gradient_tol,omitempty"`

	// StallPatience is how many consecutive iterations of
	// |clampedStep| < 0.1*GradientTol are tolerated before stopping.
	StallPatience int `yaml:"stall_patience,omitempty"`

	// MaxGradientIterations caps a single node's ascent.
	MaxGradientIterations int `yaml:"max_gradient_iterations,omitempty"`

	// DualSolutionSearch enables the optional second descent started at
	// theta+pi, keeping whichever of the two yields the higher local
	// log-likelihood. Off by default; doubles phase-1 cost when enabled.
	DualSolutionSearch bool `yaml:"dual_solution_search,omitempty"`

	// ClusteringSampleCap bounds how many nodes the StatsEstimator samples
	// when estimating average local clustering.
	ClusteringSampleCap int `yaml:"clustering_sample_cap,omitempty"`

	// GammaMin, GammaMax clamp the Hill-style tail exponent.
	GammaMin float64 `yaml:"gamma_min,omitempty"`
	GammaMax float64 `yaml:"gamma_max,omitempty"`

	// Seed seeds the PRNG used for phase-2 isolated-node placement, making
	// embeddings reproducible.
	Seed uint64 `yaml:"seed,omitempty"`
}

// DefaultConfig returns the mandated configuration: K=500, gamma clamped to
// [2.01, 4.0], dual-solution search off.
func DefaultConfig() EmbeddingConfig {
	return EmbeddingConfig{
		AnchorSize:            500,
		PhaseOneRounds:        6,
		PhaseTwoBatchSize:     100,
		LearningRateInit:      0.1,
		LearningRateMin:       0.001,
		LearningRateMax:       0.2,
		StepClamp:             0.1,
		GradientTol:           2e-4,
		StallPatience:         5,
		MaxGradientIterations: 100,
		DualSolutionSearch:    false,
		ClusteringSampleCap:   1000,
		GammaMin:              2.01,
		GammaMax:              4.0,
		Seed:                  0xC0FFEE,
	}
}

// ConfigDir returns the XDG config directory for hmap.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "hmap")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "hmap")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory, returning
// DefaultConfig if it doesn't exist.
func Load() (EmbeddingConfig, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path, returning DefaultConfig if the
// file doesn't exist. Fields absent from the YAML keep their default value.
func LoadFrom(path string) (EmbeddingConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg EmbeddingConfig) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg EmbeddingConfig, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate reports whether cfg's numeric parameters are within sane ranges.
func (c EmbeddingConfig) Validate() error {
	if c.AnchorSize <= 0 {
		return fmt.Errorf("anchor_size must be positive, got %d", c.AnchorSize)
	}
	if c.PhaseOneRounds <= 0 {
		return fmt.Errorf("phase1_rounds must be positive, got %d", c.PhaseOneRounds)
	}
	if c.GammaMin <= 2.0 {
		return fmt.Errorf("gamma_min must be > 2.0 to keep kappa0 positive, got %v", c.GammaMin)
	}
	if c.GammaMax <= c.GammaMin {
		return fmt.Errorf("gamma_max (%v) must exceed gamma_min (%v)", c.GammaMax, c.GammaMin)
	}
	if c.LearningRateMin <= 0 || c.LearningRateMax < c.LearningRateMin {
		return fmt.Errorf("invalid learning rate bounds [%v, %v]", c.LearningRateMin, c.LearningRateMax)
	}
	return nil
}
