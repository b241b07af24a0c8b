package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/ringlog/cmd/ringlog/cmdutil"
	"github.com/marmos91/ringlog/internal/bytesize"
	"github.com/marmos91/ringlog/internal/cli/output"
	"github.com/marmos91/ringlog/internal/cli/timeutil"
	"github.com/marmos91/ringlog/internal/entry"
	"github.com/marmos91/ringlog/internal/telemetry"
	"github.com/marmos91/ringlog/pkg/ringlog"
)

var infoOutput string

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the ring log header and usage",
	Long: `Show the state stored in the ring log header: format version, maximum
size, overwrite policy, offsets and how much of the data region is in use.

"Writable" is false when the file was created with a different max size or
overwrite policy than the current configuration.`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().StringVarP(&infoOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// logInfo is ringlog.Stats plus a summary of the stored entries.
type logInfo struct {
	ringlog.Stats `yaml:",inline"`
	Messages      int        `json:"messages" yaml:"messages"`
	Oldest        *time.Time `json:"oldest,omitempty" yaml:"oldest,omitempty"`
	Newest        *time.Time `json:"newest,omitempty" yaml:"newest,omitempty"`
}

func newLogInfo(stats ringlog.Stats, entries entry.List) logInfo {
	info := logInfo{Stats: stats, Messages: len(entries)}
	if len(entries) > 0 {
		info.Oldest = &entries[0].Time
		info.Newest = &entries[len(entries)-1].Time
	}
	return info
}

func (i logInfo) pairs(now time.Time) output.KeyValues {
	pairs := output.KeyValues{
		{"Path", i.Path},
		{"Version", strconv.Itoa(int(i.Version))},
		{"Maximum size", fmt.Sprintf("%s (%d bytes)", bytesize.ByteSize(i.MaximumBytes).Human(), i.MaximumBytes)},
		{"Overwrites old messages", strconv.FormatBool(i.OverwritesOldMessages)},
		{"Writable", strconv.FormatBool(i.Writable)},
		{"Messages", strconv.Itoa(i.Messages)},
		{"Used", fmt.Sprintf("%d / %d bytes (%.1f%%)", i.UsedBytes, i.Capacity, percent(i.UsedBytes, i.Capacity))},
		{"Oldest offset", strconv.FormatUint(i.OffsetOfOldestMessage, 10)},
		{"Newest offset", strconv.FormatUint(i.OffsetOfNewestMessage, 10)},
	}
	if i.Oldest != nil {
		pairs = append(pairs,
			[2]string{"Oldest entry", timeutil.FormatAge(*i.Oldest, now)},
			[2]string{"Newest entry", timeutil.FormatAge(*i.Newest, now)})
	}
	return pairs
}

func percent(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg := cmdutil.Config()

	printer, err := cmdutil.NewPrinter(cmd, infoOutput)
	if err != nil {
		return err
	}

	ctx, span := telemetry.StartLogSpan(cmd.Context(), telemetry.SpanStats, cfg.Log.Path)
	defer span.End()

	cache, err := cmdutil.OpenLog(cfg, false)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return err
	}
	defer func() { _ = cache.Close() }()

	stats, err := cache.Stats()
	if err != nil {
		telemetry.RecordError(ctx, err)
		return err
	}
	messages, err := cache.Messages()
	if err != nil {
		telemetry.RecordError(ctx, err)
		return err
	}

	info := newLogInfo(stats, messages)
	if printer.Format() == output.FormatTable {
		return output.PrintKeyValues(cmd.OutOrStdout(), info.pairs(time.Now()))
	}
	return printer.Print(info)
}
