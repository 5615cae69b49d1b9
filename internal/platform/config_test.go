package platform

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stickies/pkg/core"
	"github.com/aretw0/stickies/pkg/reminder"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults Without File", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)

		assert.Equal(t, BackendFile, cfg.Backend)
		assert.Equal(t, core.DefaultKey, cfg.Key)
		assert.Equal(t, reminder.DefaultInterval, cfg.PollInterval)
		assert.Equal(t, reminder.MatchCatchUp, cfg.Policy())
		assert.Equal(t, core.DefaultEventBuffer, cfg.EventBuffer)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
		assert.Equal(t, "us-east-1", cfg.S3.Region)
	})

	t.Run("File Values", func(t *testing.T) {
		path := writeConfig(t, `
backend: sqlite
data_dir: /var/lib/stickies
poll_interval: 15s
timezone: Europe/Lisbon
match_policy: exact-minute
sqlite:
  path: /var/lib/stickies/notes.db
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, BackendSQLite, cfg.Backend)
		assert.Equal(t, "/var/lib/stickies", cfg.DataDir)
		assert.Equal(t, 15*time.Second, cfg.PollInterval)
		assert.Equal(t, reminder.MatchExactMinute, cfg.Policy())
		assert.Equal(t, "/var/lib/stickies/notes.db", cfg.SQLite.Path)
		assert.Equal(t, core.DefaultKey, cfg.Key, "unset fields still get defaults")

		loc, err := cfg.Location()
		require.NoError(t, err)
		assert.Equal(t, "Europe/Lisbon", loc.String())
	})

	t.Run("Environment Overrides File", func(t *testing.T) {
		path := writeConfig(t, "backend: sqlite\npoll_interval: 15s\n")
		t.Setenv("STICKIES_BACKEND", "redis")
		t.Setenv("STICKIES_REDIS_ADDR", "cache:6380")
		t.Setenv("STICKIES_POLL_INTERVAL", "2m")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, BackendRedis, cfg.Backend)
		assert.Equal(t, "cache:6380", cfg.Redis.Addr)
		assert.Equal(t, 2*time.Minute, cfg.PollInterval)
	})

	t.Run("fs Is An Alias", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, "backend: FS\n"))
		require.NoError(t, err)
		assert.Equal(t, BackendFile, cfg.Backend)
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("Malformed File", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "backend: [file\n"))
		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Unknown Backend", func(c *Config) { c.Backend = "mongo" }},
		{"Zero Interval", func(c *Config) { c.PollInterval = 0 }},
		{"Unknown Policy", func(c *Config) { c.MatchPolicy = "sometimes" }},
		{"Bad Timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"S3 Without Bucket", func(c *Config) { c.Backend = BackendS3 }},
	}

	require.NoError(t, DefaultConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_MarshalRedactsSecrets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Redis.Password = "hunter2"
	cfg.S3.SecretAccessKey = "s3cr3t"

	out, err := cfg.Marshal()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hunter2")
	assert.NotContains(t, string(out), "s3cr3t")
	assert.Contains(t, string(out), "poll_interval: 1m0s")
	assert.Equal(t, "hunter2", cfg.Redis.Password, "the receiver is not modified")
}
