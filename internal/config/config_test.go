package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATA_DIR", "")
	t.Setenv("LOADER_PRESETS", "")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "./data/datasets", cfg.DataDir)
	assert.Empty(t, cfg.PresetPath)
}

func TestLoadPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	content := []byte(`
subway_short:
  data_range: all
  train_data_length: all
  test_ratio: 0.2
  closeness_len: 4
  period_len: 2
  trend_len: 0
  target_length: 1
  graph: Distance
  threshold_distance: 1500
  normalize: true
  external_use: holiday-tp
  with_lm: true
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	presets, err := LoadPresets(path)
	require.NoError(t, err)
	require.Contains(t, presets, "subway_short")

	p := presets["subway_short"]
	assert.Equal(t, 0.2, p.TestRatio)
	assert.Equal(t, 4, p.ClosenessLen)
	assert.Equal(t, "Distance", p.Graph)
	assert.Equal(t, 1500.0, p.ThresholdDistance)
	assert.True(t, p.Normalize)
}

func TestLoadPresetsMissingFile(t *testing.T) {
	_, err := LoadPresets("/nonexistent/presets.yaml")
	assert.Error(t, err)

	presets, err := LoadPresets("")
	require.NoError(t, err)
	assert.Empty(t, presets)
}
