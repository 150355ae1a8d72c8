package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "8095", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 3*3600, cfg.Sync.IntervalSeconds)
	assert.True(t, cfg.Stream.NormalizationEnabled)
	assert.Equal(t, -14.0, cfg.Stream.TargetVolumeLUFS)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harmonia.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server": {"port": "9000"},
		"database": {"driver": "sqlite", "dsn": "test.db"},
		"logging": {"level": "debug"},
		"stream": {"target_volume_lufs": -16}
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "test.db", cfg.Database.DSN)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, -16.0, cfg.Stream.TargetVolumeLUFS)
	assert.Equal(t, "0.0.0.0:9000", cfg.Address())
}

func TestLoadRejectsInvalidDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harmonia.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"database": {"driver": "oracle", "dsn": "x"}
	}`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestConfigEntryValues(t *testing.T) {
	v := Values{"username": "alice", "verify_ssl": true, "port": float64(445)}
	assert.Equal(t, "alice", v.String("username"))
	assert.True(t, v.Bool("verify_ssl"))
	assert.Equal(t, 445, v.Int("port"))
	assert.Equal(t, "", v.String("absent"))
	assert.Equal(t, 0, v.Int("absent"))
}
