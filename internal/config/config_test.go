package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.Watcher.Stability.Duration)
	assert.Equal(t, 30*time.Second, cfg.Stream.KeepAlive.Duration)
	assert.Equal(t, ":3000", cfg.Addr())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
data:
  root: /srv/clawd
watcher:
  stability: 250ms
stream:
  keepalive: 5s
sync:
  cron: ""
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/srv/clawd", cfg.Data.Root)
	assert.Equal(t, 250*time.Millisecond, cfg.Watcher.Stability.Duration)
	assert.Equal(t, 100*time.Millisecond, cfg.Watcher.PollInterval.Duration)
	assert.Equal(t, 5*time.Second, cfg.Stream.KeepAlive.Duration)
	assert.Empty(t, cfg.Sync.Cron)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[database]
driver = "mysql"
host = "db.local"

[watcher]
stability = "1s"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "db.local", cfg.Database.Host)
	assert.Equal(t, time.Second, cfg.Watcher.Stability.Duration)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("watcher:\n  stability: soon\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "4100")
	t.Setenv("CLAWD_PATH", "/tmp/clawd")
	t.Setenv("TG_CHAT_ID", "12345")
	t.Setenv("DB_PATH", "/tmp/mc.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 4100, cfg.Server.Port)
	assert.Equal(t, "/tmp/clawd", cfg.Data.Root)
	assert.Equal(t, int64(12345), cfg.Telegram.ChatID)
	assert.Equal(t, "/tmp/mc.db", cfg.Database.Path)
}
