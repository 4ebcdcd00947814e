package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPassesValidation(t *testing.T) {
	cfg := Default()
	assert.NoError(t, Validate(&cfg))
}

func TestLoadFromPathOverlaysOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("minGroupSizeEffect: 2\n"), 0o644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.MinGroupSizeEffect)
	assert.Equal(t, uint32(3), cfg.Verbosity, "unspecified fields keep their default")
}

func TestValidateRejectsOutOfRangeMinGroupSizeEffect(t *testing.T) {
	cfg := Default()
	cfg.MinGroupSizeEffect = 0
	assert.Error(t, Validate(&cfg))
}

func TestValidateRejectsCapacityBufferNotGreaterThanOne(t *testing.T) {
	cfg := Default()
	cfg.CapacityBufferFactor = 1.0
	assert.Error(t, Validate(&cfg))
}
