package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/ringlog/cmd/ringlog/cmdutil"
	"github.com/marmos91/ringlog/internal/cli/output"
	"github.com/marmos91/ringlog/internal/entry"
	"github.com/marmos91/ringlog/internal/logger"
	"github.com/marmos91/ringlog/internal/telemetry"
)

var (
	listOutput string
	listLines  int
	listLevel  string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored messages, oldest first",
	Long: `List the messages currently stored in the ring log, oldest first.

Examples:
  # Show everything
  ringlog list

  # Show the 10 newest error entries as JSON
  ringlog list --level error -n 10 -o json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format (table|json|yaml)")
	listCmd.Flags().IntVarP(&listLines, "lines", "n", 0, "Show only the N newest messages (0 = all)")
	listCmd.Flags().StringVarP(&listLevel, "level", "l", "", "Show only messages at this level")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := cmdutil.Config()

	printer, err := cmdutil.NewPrinter(cmd, listOutput)
	if err != nil {
		return err
	}

	level := ""
	if listLevel != "" {
		if level, err = entry.ParseLevel(listLevel); err != nil {
			return err
		}
	}

	entries, err := readEntries(cmd, cfg.Log.Path)
	if err != nil {
		return err
	}
	entries = entries.Filter(level).Last(listLines)

	if len(entries) == 0 && printer.Format() == output.FormatTable {
		printer.Warning(fmt.Sprintf("No messages in %s", cfg.Log.Path))
		return nil
	}
	return printer.Print(entries)
}

// readEntries opens the configured log read-only and returns its entries.
func readEntries(cmd *cobra.Command, path string) (entry.List, error) {
	ctx, span := telemetry.StartLogSpan(cmd.Context(), telemetry.SpanList, path)
	defer span.End()

	cache, err := cmdutil.OpenLog(cmdutil.Config(), false)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	defer func() { _ = cache.Close() }()

	messages, err := cache.Messages()
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	telemetry.SetAttributes(ctx, telemetry.Messages(len(messages)))
	logger.DebugCtx(ctx, "Entries read", logger.KeyMessages, len(messages))
	return entry.List(messages), nil
}
