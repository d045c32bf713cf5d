// Package exposureconf loads and validates the exposure weight table
// from YAML, falling back to the tuned defaults.
package exposureconf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/leaklens/leaklens/internal/analysis/exposure"
)

// fileConfig mirrors the YAML layout.
type fileConfig struct {
	Weights    exposure.Weights `yaml:"weights"`
	Validation struct {
		MaxTotal  float64 `yaml:"max_total"`
		MinWeight float64 `yaml:"min_weight"`
		MaxWeight float64 `yaml:"max_weight"`
	} `yaml:"validation"`
}

// Loader loads and validates exposure weights.
type Loader struct {
	weights *exposure.Weights
}

// NewLoader creates an empty loader.
func NewLoader() *Loader { return &Loader{} }

// LoadDefault installs the tuned default weights.
func (l *Loader) LoadDefault() error {
	w := exposure.DefaultWeights()
	if err := validate(w, 0, 30); err != nil {
		return fmt.Errorf("default weights validation failed: %w", err)
	}
	l.weights = &w
	return nil
}

// LoadFromFile reads a weights YAML file and validates it.
func (l *Loader) LoadFromFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read weights file %s: %w", path, err)
	}

	cfg := fileConfig{Weights: exposure.DefaultWeights()}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("failed to parse weights YAML: %w", err)
	}

	minW, maxW := cfg.Validation.MinWeight, cfg.Validation.MaxWeight
	if maxW == 0 {
		maxW = 30
	}
	if err := validate(cfg.Weights, minW, maxW); err != nil {
		return fmt.Errorf("weights validation failed: %w", err)
	}

	l.weights = &cfg.Weights
	return nil
}

// Weights returns the loaded table.
func (l *Loader) Weights() (exposure.Weights, error) {
	if l.weights == nil {
		return exposure.Weights{}, fmt.Errorf("weights not loaded, call LoadFromFile or LoadDefault first")
	}
	return *l.weights, nil
}

func validate(w exposure.Weights, minW, maxW float64) error {
	signals := map[string]float64{
		"swap_density":               w.SwapDensity,
		"denomination_concentration": w.Denomination,
		"temporal_predictability":    w.Temporal,
		"counterparty_repetition":    w.Counterparty,
		"automation_fingerprint":     w.Automation,
		"income_predictability":      w.Income,
		"portfolio_concentration":    w.Concentration,
	}
	for name, value := range signals {
		if value < minW {
			return fmt.Errorf("weight %s (%.1f) below minimum (%.1f)", name, value, minW)
		}
		if value > maxW {
			return fmt.Errorf("weight %s (%.1f) above maximum (%.1f)", name, value, maxW)
		}
	}
	if w.ActivityBonus < 0 {
		return fmt.Errorf("activity_bonus must not be negative")
	}
	if w.MediumTier >= w.HighTier {
		return fmt.Errorf("medium_tier (%.1f) must be below high_tier (%.1f)", w.MediumTier, w.HighTier)
	}
	if w.MediumTier <= 0 || w.HighTier > 100 {
		return fmt.Errorf("tier cut-offs must sit inside (0, 100]")
	}
	return nil
}

// DefaultConfigPath returns the conventional weights file location.
func DefaultConfigPath() string {
	return filepath.Join("config", "exposure_weights.yaml")
}
