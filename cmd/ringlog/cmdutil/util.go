// Package cmdutil provides shared state and helpers for ringlog commands.
package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/marmos91/ringlog/internal/bytesize"
	"github.com/marmos91/ringlog/internal/cli/output"
	"github.com/marmos91/ringlog/internal/entry"
	"github.com/marmos91/ringlog/internal/logger"
	"github.com/marmos91/ringlog/internal/telemetry"
	"github.com/marmos91/ringlog/pkg/config"
	"github.com/marmos91/ringlog/pkg/metrics"
	"github.com/marmos91/ringlog/pkg/ringlog"
)

// AnnotationNoSetup marks commands that run without loading configuration.
const AnnotationNoSetup = "ringlog/no-setup"

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ConfigFile string
	Path       string
	MaxSize    string
	Overwrite  bool
	NoColor    bool
}

var (
	current  *config.Config
	shutdown func(context.Context) error
	version  = "dev"
)

// SetVersion records the build version reported to the trace backend.
func SetVersion(v string) {
	version = v
}

// Config returns the configuration loaded by Setup.
func Config() *config.Config {
	return current
}

// LoadConfig loads configuration and applies the global flag overrides.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(Flags.ConfigFile)
	if err != nil {
		return nil, err
	}

	if Flags.Path != "" {
		cfg.Log.Path = Flags.Path
	}
	if Flags.MaxSize != "" {
		size, err := bytesize.Parse(Flags.MaxSize)
		if err != nil {
			return nil, fmt.Errorf("invalid --max-size: %w", err)
		}
		cfg.Log.MaxSize = size
	}
	if f := cmd.Flags().Lookup("overwrite"); f != nil && f.Changed {
		cfg.Log.OverwriteOldMessages = Flags.Overwrite
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Setup loads configuration, initializes logging and tracing, and binds a
// LogContext for cmd to its context.
func Setup(cmd *cobra.Command) error {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	stop, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "ringlog",
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	current = cfg
	shutdown = stop
	cmd.SetContext(logger.WithContext(ctx, &logger.LogContext{
		Command: cmd.Name(),
		Path:    cfg.Log.Path,
	}))

	logger.Debug("Configuration loaded",
		logger.KeyConfig, configSource(),
		logger.KeyPath, cfg.Log.Path,
		logger.KeyMaximumBytes, cfg.Log.MaxSize.Uint64(),
		logger.KeyOverwrites, cfg.Log.OverwriteOldMessages)
	return nil
}

// Shutdown flushes telemetry started by Setup.
func Shutdown(ctx context.Context) error {
	if shutdown == nil {
		return nil
	}
	err := shutdown(ctx)
	shutdown = nil
	return err
}

func configSource() string {
	if Flags.ConfigFile != "" {
		return Flags.ConfigFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}

// OpenLog opens the configured ring log. Unless create is set the file must
// already exist.
func OpenLog(cfg *config.Config, create bool) (*ringlog.Cache[entry.Entry], error) {
	if create {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	} else if _, err := os.Stat(cfg.Log.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("ring log %s does not exist (append a message to create it)", cfg.Log.Path)
		}
		return nil, err
	}

	return ringlog.Open(cfg.Log.Path, cfg.Log.MaxSize.Uint64(), cfg.Log.OverwriteOldMessages, entry.Codec(),
		ringlog.WithSyncWrites(cfg.Log.SyncWrites),
		ringlog.WithMetrics(metrics.NewRinglogMetrics(cfg.Log.MetricsName())),
	)
}

// NewPrinter returns a printer for the --output value of cmd.
func NewPrinter(cmd *cobra.Command, format string) (*output.Printer, error) {
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	out := cmd.OutOrStdout()
	return output.NewPrinter(out, f, colorEnabled(out)), nil
}

func colorEnabled(w io.Writer) bool {
	if Flags.NoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && logger.IsTerminal(f)
}

// Explain adds a hint to ring log errors users can act on.
func Explain(err error) string {
	switch {
	case errors.Is(err, ringlog.ErrFileNotWritable):
		return err.Error() + "\nThe file was created with a different max size or overwrite policy; " +
			"pass matching --max-size/--overwrite values to append, or use list/info to read it."
	case errors.Is(err, ringlog.ErrMessageLargerThanRemainingCacheSize):
		return err.Error() + "\nThe log is full and does not overwrite old messages."
	case errors.Is(err, ringlog.ErrMessageLargerThanCacheCapacity):
		return err.Error() + "\nIncrease log.max_size to store messages of this size."
	case errors.Is(err, ringlog.ErrFileCorrupted):
		return err.Error() + "\nThe file is not a ring log of a supported version."
	default:
		return err.Error()
	}
}
