package commands

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/ringlog/cmd/ringlog/cmdutil"
	"github.com/marmos91/ringlog/internal/cli/output"
	"github.com/marmos91/ringlog/internal/entry"
	"github.com/marmos91/ringlog/internal/logger"
	"github.com/marmos91/ringlog/internal/telemetry"
	"github.com/marmos91/ringlog/pkg/ringlog"
)

var (
	appendLevel  string
	appendOutput string
)

var appendCmd = &cobra.Command{
	Use:   "append <message...> | append -",
	Short: "Append a message to the ring log",
	Long: `Append a message to the ring log, creating the file if needed.

The arguments are joined with spaces into one message. With "-" every line
read from stdin is appended as its own message.

Examples:
  # Append one message
  ringlog append "cache warmed"

  # Append at error level
  ringlog append --level error "upstream timed out"

  # Append every line of a file
  ringlog append - < events.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAppend,
}

func init() {
	appendCmd.Flags().StringVarP(&appendLevel, "level", "l", entry.LevelInfo, "Message level (debug|info|warn|error)")
	appendCmd.Flags().StringVarP(&appendOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

func runAppend(cmd *cobra.Command, args []string) error {
	cfg := cmdutil.Config()

	printer, err := cmdutil.NewPrinter(cmd, appendOutput)
	if err != nil {
		return err
	}

	cache, err := cmdutil.OpenLog(cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = cache.Close() }()

	if len(args) == 1 && args[0] == "-" {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		scanner.Buffer(make([]byte, 0, 64*1024), int(cfg.Log.MaxSize.Uint64()))
		for scanner.Scan() {
			if err := appendMessage(cmd.Context(), cache, printer, scanner.Text()); err != nil {
				return err
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		return nil
	}

	return appendMessage(cmd.Context(), cache, printer, strings.Join(args, " "))
}

func appendMessage(ctx context.Context, cache *ringlog.Cache[entry.Entry], printer *output.Printer, message string) error {
	e, err := entry.New(appendLevel, message)
	if err != nil {
		return err
	}

	ctx, span := telemetry.StartLogSpan(ctx, telemetry.SpanAppend, cache.Path())
	defer span.End()
	ctx = logger.WithContext(ctx, logger.FromContext(ctx).WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx)))

	start := time.Now()
	if err := cache.Append(e); err != nil {
		telemetry.RecordError(ctx, err)
		return err
	}
	logger.DebugCtx(ctx, "Entry appended", "id", e.ID.String(), logger.DurationMs(start))

	if printer.Format() == output.FormatTable {
		printer.Success(e.ID.String())
		return nil
	}
	return printer.PrintRecord(e)
}
