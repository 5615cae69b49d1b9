package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/stickies/pkg/adapters/redis"
	"github.com/aretw0/stickies/pkg/adapters/s3"
	"github.com/aretw0/stickies/pkg/core"
	"github.com/aretw0/stickies/pkg/reminder"
)

// ConfigFileName is the per-directory config file found by FindConfig.
const ConfigFileName = ".stickies.yaml"

// Backend names accepted in Config.Backend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendS3     = "s3"
)

// Config is the application configuration. Values come from an optional YAML
// file, then STICKIES_* environment variables, then env-default tags for
// whatever is still unset.
type Config struct {
	Backend      string        `yaml:"backend" env:"STICKIES_BACKEND" env-default:"file"`
	DataDir      string        `yaml:"data_dir" env:"STICKIES_DATA_DIR"`
	Key          string        `yaml:"key" env:"STICKIES_KEY" env-default:"sticky_notes_data"`
	PollInterval time.Duration `yaml:"poll_interval" env:"STICKIES_POLL_INTERVAL" env-default:"60s"`
	Timezone     string        `yaml:"timezone" env:"STICKIES_TIMEZONE"`
	MatchPolicy  string        `yaml:"match_policy" env:"STICKIES_MATCH_POLICY" env-default:"catch-up"`
	EventBuffer  int           `yaml:"event_buffer" env:"STICKIES_EVENT_BUFFER" env-default:"100"`

	SQLite SQLiteConfig `yaml:"sqlite" env-prefix:"STICKIES_SQLITE_"`
	Redis  redis.Config `yaml:"redis" env-prefix:"STICKIES_REDIS_"`
	S3     s3.Config    `yaml:"s3" env-prefix:"STICKIES_S3_"`
}

// SQLiteConfig configures the sqlite backend.
type SQLiteConfig struct {
	// Path of the database file. Defaults to notes.db inside DataDir.
	Path string `yaml:"path" env:"PATH"`
}

// LoadConfig reads path (if non-empty) and overlays the environment.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if cfg.Backend == "fs" {
		cfg.Backend = BackendFile
	}
	return cfg, cfg.Validate()
}

// DefaultConfig returns the configuration used when no file or environment
// is present.
func DefaultConfig() Config {
	return Config{
		Backend:      BackendFile,
		Key:          core.DefaultKey,
		PollInterval: reminder.DefaultInterval,
		MatchPolicy:  reminder.MatchCatchUp.String(),
		EventBuffer:  core.DefaultEventBuffer,
		Redis:        redis.Config{Addr: "localhost:6379", DialTimeout: 5 * time.Second},
		S3:           s3.Config{Region: "us-east-1"},
	}
}

// Validate checks the values that cannot be checked by type alone.
func (c Config) Validate() error {
	var errs []error

	switch c.Backend {
	case BackendFile, BackendSQLite, BackendRedis, BackendS3:
	default:
		errs = append(errs, fmt.Errorf("unknown backend: %q", c.Backend))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval))
	}
	if _, err := reminder.ParseMatchPolicy(c.MatchPolicy); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Backend == BackendS3 && c.S3.Bucket == "" {
		errs = append(errs, errors.New("s3 backend requires s3.bucket"))
	}
	return errors.Join(errs...)
}

// Location resolves Timezone. Empty means the system's local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Policy parses MatchPolicy.
func (c Config) Policy() reminder.MatchPolicy {
	p, _ := reminder.ParseMatchPolicy(c.MatchPolicy)
	return p
}

// DefaultDataDir is ~/.stickies, or ./.stickies when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stickies"
	}
	return filepath.Join(home, ".stickies")
}

// Marshal renders the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	// Credentials never leave the process.
	c.Redis.Password = redact(c.Redis.Password)
	c.S3.SecretAccessKey = redact(c.S3.SecretAccessKey)
	return yaml.Marshal(c)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
