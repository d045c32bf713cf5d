package exposureconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaklens/leaklens/internal/analysis/exposure"
)

func writeWeights(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weights.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefault(t *testing.T) {
	l := NewLoader()
	require.NoError(t, l.LoadDefault())

	w, err := l.Weights()
	require.NoError(t, err)
	assert.Equal(t, exposure.DefaultWeights(), w)
}

func TestWeightsBeforeLoadFails(t *testing.T) {
	_, err := NewLoader().Weights()
	assert.Error(t, err)
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	path := writeWeights(t, `
weights:
  swap_density: 25
  temporal_predictability: 10
  high_tier: 60
  medium_tier: 30
`)

	l := NewLoader()
	require.NoError(t, l.LoadFromFile(path))

	w, err := l.Weights()
	require.NoError(t, err)
	assert.Equal(t, 25.0, w.SwapDensity)
	assert.Equal(t, 10.0, w.Temporal)
	assert.Equal(t, 60.0, w.HighTier)
	assert.Equal(t, 30.0, w.MediumTier)
	// Untouched fields keep their defaults.
	assert.Equal(t, 15.0, w.Counterparty)
	assert.Equal(t, 10.0, w.ActivityBonus)
}

func TestLoadFromFileRejectsOutOfRangeWeight(t *testing.T) {
	path := writeWeights(t, `
weights:
  swap_density: 55
validation:
  max_weight: 30
`)
	err := NewLoader().LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "swap_density")
}

func TestLoadFromFileRejectsInvertedTiers(t *testing.T) {
	path := writeWeights(t, `
weights:
  high_tier: 25
  medium_tier: 50
`)
	err := NewLoader().LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "medium_tier")
}

func TestLoadFromFileMissingFile(t *testing.T) {
	err := NewLoader().LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestShippedConfigMatchesDefaults(t *testing.T) {
	path := filepath.Join("..", "..", "..", "config", "exposure_weights.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("repo weights file not present")
	}

	l := NewLoader()
	require.NoError(t, l.LoadFromFile(path))
	w, err := l.Weights()
	require.NoError(t, err)
	assert.Equal(t, exposure.DefaultWeights(), w)
}
