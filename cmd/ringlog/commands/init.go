package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/ringlog/cmd/ringlog/cmdutil"
	"github.com/marmos91/ringlog/internal/cli/prompt"
	"github.com/marmos91/ringlog/internal/logger"
	"github.com/marmos91/ringlog/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample ringlog configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/ringlog/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  ringlog init

  # Initialize with custom path
  ringlog init --config ./ringlog.yaml

  # Force overwrite existing config
  ringlog init --force`,
	Annotations: map[string]string{cmdutil.AnnotationNoSetup: "true"},
	RunE:        runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := cmdutil.Flags.ConfigFile
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	force := initForce
	if _, err := os.Stat(configPath); err == nil && !force && logger.IsTerminal(os.Stdin) {
		ok, err := prompt.Confirm(fmt.Sprintf("Overwrite existing %s", configPath), false)
		if err != nil {
			return err
		}
		if !ok {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return nil
		}
		force = true
	}

	if err := config.InitConfigToPath(configPath, force); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Set log.path and log.max_size for your log")
	_, _ = fmt.Fprintln(out, "  2. Append a message with: ringlog append \"hello\"")
	return nil
}
