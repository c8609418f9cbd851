package eqconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default().Defaults.StdevTarget, cfg.Defaults.StdevTarget)
}

func TestLoadDecodesPresetsAndDefaults(t *testing.T) {
	content := `
defaults {
  stdev_target = 0.001
  workers      = 4
}

preset "button-loose" {
  range = "22+,A2+,K9+"
}
`
	path := filepath.Join(t.TempDir(), "equity.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.001, cfg.Defaults.StdevTarget)
	assert.Equal(t, 4, cfg.Defaults.Workers)

	r, ok := cfg.PresetRange("button-loose")
	require.True(t, ok)
	assert.Equal(t, "22+,A2+,K9+", r)
}

func TestValidateRejectsDuplicatePresetNames(t *testing.T) {
	cfg := Default()
	cfg.Presets = []PresetConfig{{Name: "x", Range: "AA"}, {Name: "x", Range: "KK"}}
	assert.Error(t, cfg.Validate())
}
