package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/ringlog/cmd/ringlog/cmdutil"
	"github.com/marmos91/ringlog/internal/cli/output"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display effective configuration",
	Long: `Display the configuration ringlog runs with: the config file merged with
RINGLOG_* environment variables and global flags.

By default outputs YAML format. Use --output to change format.

Examples:
  # Show effective config as YAML
  ringlog config show

  # Show as JSON
  ringlog config show --output json

  # Show with an override applied
  RINGLOG_LOG_MAX_SIZE=64Ki ringlog config show`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	cfg := cmdutil.Config()
	switch format {
	case output.FormatJSON:
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	case output.FormatYAML:
		return output.PrintYAML(cmd.OutOrStdout(), cfg)
	default:
		return fmt.Errorf("unsupported format for config show: %s (use yaml or json)", format)
	}
}
