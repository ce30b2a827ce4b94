package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level, "file value wins")
	assert.Equal(t, "tick_data", cfg.Recorder.OutputDir)
	assert.Equal(t, "16:00", cfg.Session.FlushDay)
	assert.Equal(t, "02:35", cfg.Session.FlushNight)
	assert.Equal(t, "15:00", cfg.Session.ArchiveGate)
	assert.Equal(t, 30*time.Second, cfg.Session.PollIdle)
	assert.Equal(t, 10*time.Second, cfg.Session.PollActive)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, "tick", cfg.Redis.KeyPrefix)
	assert.Contains(t, cfg.Recorder.ExcludePrefixes, "wr")
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := writeConfig(t, `
recorder:
  output_dir: /data/ticks
  exclude_prefixes: [xx]
session:
  day_start: "09:00"
  poll_idle: 5s
redis:
  addr: redis.internal:6379
  db: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/ticks", cfg.Recorder.OutputDir)
	assert.Equal(t, []string{"xx"}, cfg.Recorder.ExcludePrefixes)
	assert.Equal(t, "09:00", cfg.Session.DayStart)
	assert.Equal(t, 5*time.Second, cfg.Session.PollIdle)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	// Untouched keys keep defaults.
	assert.Equal(t, "16:30", cfg.Session.DayEnd)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host: "localhost", Port: 5432, User: "postgres", Password: "pw",
		DBName: "tickrecorder", SSLMode: "disable", TimeZone: "Asia/Shanghai",
	}

	dsn := cfg.DSN("dev")
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=tickrecorder")
	assert.Contains(t, dsn, "TimeZone=Asia/Shanghai")

	assert.Contains(t, cfg.MaintenanceDSN("dev"), "dbname=postgres")
}

func TestRedisResolvePasswordDev(t *testing.T) {
	cfg := RedisConfig{Password: "local-pw"}
	assert.Equal(t, "local-pw", cfg.ResolvePassword("dev"))
}
