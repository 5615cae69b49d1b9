package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/stickies"
	"github.com/aretw0/stickies/pkg/clock"
	"github.com/aretw0/stickies/pkg/core"
)

// appClock is the clock every command opens the app with.
var appClock clock.Clock = clock.Real()

var (
	verbose    bool
	configPath string
	backend    string
	dataDir    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stickies",
	Short: "Sticky notes with reminders",
	Long: `Stickies keeps categorized notes with optional one-shot reminders.
Notes are stored in a JSON file by default, or in SQLite, Redis or S3.
Run "stickies run" to deliver reminders as they come due.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: nearest .stickies.yaml)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Storage backend: file, sqlite, redis or s3")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for the file and sqlite backends")
}

// loadConfig resolves the config file, the environment and the global flags.
func loadConfig() (stickies.Config, error) {
	path := configPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return stickies.Config{}, err
		}
		found, err := stickies.FindConfig(wd)
		if err == nil {
			path = found
		}
	}

	cfg, err := stickies.LoadConfig(path)
	if err != nil {
		return stickies.Config{}, err
	}
	if backend != "" {
		cfg.Backend = backend
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, cfg.Validate()
}

// openApp opens the configured store. Corrupt data is reported and the
// command continues on an empty store.
func openApp(ctx context.Context, opts ...stickies.Option) (*stickies.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	opts = append([]stickies.Option{stickies.WithLogger(slog.Default()), stickies.WithClock(appClock)}, opts...)
	app, err := stickies.Open(ctx, cfg, opts...)
	if errors.Is(err, core.ErrCorruptState) && app != nil {
		slog.Warn("stored notes could not be read, starting with an empty list", "error", err)
		return app, nil
	}
	return app, err
}
