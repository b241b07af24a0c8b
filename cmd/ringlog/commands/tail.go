package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/marmos91/ringlog/cmd/ringlog/cmdutil"
	"github.com/marmos91/ringlog/internal/cli/output"
	"github.com/marmos91/ringlog/internal/entry"
	"github.com/marmos91/ringlog/internal/logger"
	"github.com/marmos91/ringlog/internal/telemetry"
	"github.com/marmos91/ringlog/pkg/metrics"
	"github.com/marmos91/ringlog/pkg/ringlog"
)

var (
	tailLines       int
	tailFollow      bool
	tailOutput      string
	tailMetricsAddr string
	tailInterval    time.Duration
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show the newest messages and optionally follow new ones",
	Long: `Display the newest messages of the ring log and optionally follow it.

With --follow the file is watched for writes and re-read on every change
(and at least once per --interval), printing only entries appended since the
last one shown. Entries evicted before they could be printed are skipped.

While following, Prometheus metrics for the log are served on
--metrics-addr (or metrics.address when metrics.enabled is set), and
Pyroscope profiling runs when telemetry.profiling.enabled is set.

Examples:
  # Show the last 10 messages (default)
  ringlog tail

  # Follow as JSON lines
  ringlog tail -f -o json

  # Follow and expose metrics
  ringlog tail -f --metrics-addr :9090`,
	Args: cobra.NoArgs,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().IntVarP(&tailLines, "lines", "n", 10, "Number of messages to show")
	tailCmd.Flags().BoolVarP(&tailFollow, "follow", "f", false, "Follow new messages")
	tailCmd.Flags().StringVarP(&tailOutput, "output", "o", "table", "Output format (table|json|yaml)")
	tailCmd.Flags().StringVar(&tailMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while following")
	tailCmd.Flags().DurationVar(&tailInterval, "interval", time.Second, "Poll interval used alongside file notifications")
}

func runTail(cmd *cobra.Command, args []string) error {
	cfg := cmdutil.Config()
	ctx := cmd.Context()

	printer, err := cmdutil.NewPrinter(cmd, tailOutput)
	if err != nil {
		return err
	}
	if tailInterval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	metricsAddr := tailMetricsAddr
	if metricsAddr == "" && cfg.Metrics.Enabled {
		metricsAddr = cfg.Metrics.Address
	}
	if tailFollow && metricsAddr != "" {
		metrics.InitRegistry()
		defer metrics.Reset()
	}

	ctx, span := telemetry.StartLogSpan(ctx, telemetry.SpanTail, cfg.Log.Path)
	defer span.End()

	cache, err := cmdutil.OpenLog(cfg, false)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return err
	}
	defer func() { _ = cache.Close() }()

	messages, err := cache.Messages()
	if err != nil {
		return err
	}
	initial := entry.List(messages).Last(tailLines)
	for _, e := range initial {
		if err := printEntry(printer, e); err != nil {
			return err
		}
	}

	if !tailFollow {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if metricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, metricsAddr); err != nil {
				logger.WarnCtx(ctx, "Metrics server stopped", logger.Err(err))
			}
		}()
	}

	stopProfiling, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "ringlog",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return err
	}
	defer func() { _ = stopProfiling() }()

	var last *entry.Entry
	if len(messages) > 0 {
		last = &messages[len(messages)-1]
	}

	logger.InfoCtx(ctx, "Following ring log", logger.KeyPath, cache.Path())
	return followEntries(ctx, cache, last, tailInterval, func(e entry.Entry) error {
		return printEntry(printer, e)
	})
}

// printEntry writes e as one table row, JSON line or YAML document.
func printEntry(printer *output.Printer, e entry.Entry) error {
	if printer.Format() == output.FormatTable {
		return printer.PrintRecord(entry.List{e})
	}
	return printer.PrintRecord(e)
}

// followEntries calls emit for every entry appended after last until ctx is
// done. The file is re-read on each write notification and on every tick.
func followEntries(ctx context.Context, cache *ringlog.Cache[entry.Entry], last *entry.Entry, interval time.Duration, emit func(entry.Entry) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(cache.Path()); err != nil {
		return fmt.Errorf("failed to watch ring log: %w", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	poll := func() error {
		messages, err := cache.Messages()
		if err != nil {
			// A concurrent append may be half written.
			if errors.Is(err, ringlog.ErrFileCorrupted) {
				logger.DebugCtx(ctx, "Skipping inconsistent read", logger.Err(err))
				return nil
			}
			return err
		}

		fresh := entry.List(messages)
		if last != nil {
			fresh = fresh.Since(*last)
		}
		for _, e := range fresh {
			if err := emit(e); err != nil {
				return err
			}
		}
		if len(fresh) > 0 {
			e := fresh[len(fresh)-1]
			last = &e
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				if err := poll(); err != nil {
					return err
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)

		case <-ticker.C:
			if err := poll(); err != nil {
				return err
			}
		}
	}
}

