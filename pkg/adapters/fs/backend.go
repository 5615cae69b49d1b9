package fs

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/stickies/pkg/core"
)

// Extension is appended to the key to form the data file name.
const Extension = ".json"

// Backend implements core.Backend on a single JSON file.
type Backend struct {
	Path   string // absolute path of the data file
	config Config

	mu            sync.RWMutex
	lastWritten   [sha256.Size]byte
	hasWritten    bool
	saves         uint64
	lastSave      *time.Time
	watcherActive bool
}

// Config holds the configuration for the file backend.
type Config struct {
	Dir       string
	Key       string      // file name without extension; defaults to core.DefaultKey
	Perm      os.FileMode // defaults to 0644
	MustExist bool        // fail Initialize instead of creating Dir
	Logger    *slog.Logger
}

// NewBackend creates a file backend. Call Initialize before first use.
func NewBackend(config Config) *Backend {
	if config.Key == "" {
		config.Key = core.DefaultKey
	}
	if config.Perm == 0 {
		config.Perm = 0644
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{
		Path:   filepath.Join(config.Dir, config.Key+Extension),
		config: config,
	}
}

// Initialize makes sure the data directory exists.
func (b *Backend) Initialize(ctx context.Context) error {
	if b.config.MustExist {
		info, err := os.Stat(b.config.Dir)
		if os.IsNotExist(err) {
			return fmt.Errorf("data directory does not exist: %s", b.config.Dir)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("data path is not a directory: %s", b.config.Dir)
		}
		return nil
	}

	if err := os.MkdirAll(b.config.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// Load reads the data file. A missing file is core.ErrNoState.
func (b *Backend) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, core.ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", b.Path, err)
	}
	return data, nil
}

// Save atomically replaces the data file.
func (b *Backend) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := writeFileAtomic(b.Path, data, b.config.Perm); err != nil {
		return err
	}

	now := time.Now()
	b.lastWritten = sha256.Sum256(data)
	b.hasWritten = true
	b.saves++
	b.lastSave = &now
	b.config.Logger.Debug("saved", "path", b.Path, "bytes", len(data))
	return nil
}

// isOwnWrite reports whether data is exactly what this backend last saved.
func (b *Backend) isOwnWrite(data []byte) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.hasWritten && sha256.Sum256(data) == b.lastWritten
}

var (
	_ core.Backend   = (*Backend)(nil)
	_ core.Watchable = (*Backend)(nil)
)
