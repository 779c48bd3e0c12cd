package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"port": 9901,
		"snapshot": {"type": "local", "data": {"path": "/data/snapshot.json"}}
	}`))
	require.NoError(t, err)
	require.Equal(t, 9901, cfg.Port)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, 10, cfg.Search.DefaultTopK)
	require.Equal(t, 15, cfg.Search.FastDeadlineSeconds)
	require.Equal(t, 100, cfg.Cache.Capacity)
	require.Equal(t, 3600, cfg.Cache.TTLSeconds)
	require.Equal(t, 600, cfg.Cache.FastTTLSeconds)
	require.Equal(t, 30, cfg.Generative.TimeoutSeconds)
}

func TestLoad_PortRequired(t *testing.T) {
	_, err := Load(writeConfig(t, `{"snapshot": {"type": "local"}}`))
	require.Error(t, err)
}

func TestLoad_SnapshotTypeRequired(t *testing.T) {
	_, err := Load(writeConfig(t, `{"port": 9901}`))
	require.Error(t, err)
}

func TestLoad_GenerativeProviderNeedsModel(t *testing.T) {
	_, err := Load(writeConfig(t, `{
		"port": 9901,
		"snapshot": {"type": "local", "data": {"path": "/data/snapshot.json"}},
		"generative": {"provider": "gemini"}
	}`))
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
