// Package commands implements the ringlog CLI.
package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/marmos91/ringlog/cmd/ringlog/cmdutil"
	"github.com/marmos91/ringlog/cmd/ringlog/commands/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ringlog",
	Short: "Fixed-size, file-backed circular message log",
	Long: `ringlog stores messages in a single preallocated file of fixed size.
When the file is full the oldest messages are evicted (or, if configured,
appends are rejected) so the file never grows.

Use "ringlog [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		for c := cmd; c != nil; c = c.Parent() {
			if c.Annotations[cmdutil.AnnotationNoSetup] == "true" {
				return nil
			}
		}
		return cmdutil.Setup(cmd)
	},
}

// Execute runs the root command and flushes telemetry afterwards.
func Execute(ctx context.Context) error {
	cmdutil.SetVersion(Version)
	err := rootCmd.ExecuteContext(ctx)
	return errors.Join(err, cmdutil.Shutdown(context.Background()))
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cmdutil.Flags.ConfigFile, "config", "", "config file (default: $XDG_CONFIG_HOME/ringlog/config.yaml)")
	flags.StringVarP(&cmdutil.Flags.Path, "path", "p", "", "ring log file (overrides log.path)")
	flags.StringVar(&cmdutil.Flags.MaxSize, "max-size", "", "total file size, e.g. 64Ki (overrides log.max_size)")
	flags.BoolVar(&cmdutil.Flags.Overwrite, "overwrite", true, "evict old messages when full (overrides log.overwrite_old_messages)")
	flags.BoolVar(&cmdutil.Flags.NoColor, "no-color", false, "disable coloured output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(appendCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
