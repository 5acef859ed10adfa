package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "db.json", cfg.Database.Path)
	assert.Equal(t, "lockfile", cfg.Lockfile.Path)
	assert.Equal(t, 24*time.Hour, cfg.Report.Window)
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /var/lib/track/work
lockfile:
  path: /run/track.lock
report:
  window: 48h
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/track/work.json", cfg.Database.Path)
	assert.Equal(t, "/run/track.lock", cfg.Lockfile.Path)
	assert.Equal(t, 48*time.Hour, cfg.Report.Window)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("report:\n  window: 1h\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, DefaultLockfilePath, cfg.Lockfile.Path)
	assert.Equal(t, time.Hour, cfg.Report.Window)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Database.Path = "/tmp/hours.json"
	cfg.Report.Window = 2 * time.Hour

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestNormalizeDBPath(t *testing.T) {
	assert.Equal(t, "db.json", NormalizeDBPath(""))
	assert.Equal(t, "work.json", NormalizeDBPath("work"))
	assert.Equal(t, "work.json", NormalizeDBPath("work.json"))
	assert.Equal(t, "/data/db.txt.json", NormalizeDBPath("/data/db.txt"))
}
