package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/ringlog/cmd/ringlog/cmdutil"
	"github.com/marmos91/ringlog/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the ringlog configuration file.

Checks for syntax errors, missing required fields, and invalid values, and
warns when an existing ring log was created with a different size or
overwrite policy than the configuration describes.

Examples:
  # Validate default config
  ringlog config validate

  # Validate specific config file
  ringlog config validate --config ./ringlog.yaml`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{cmdutil.AnnotationNoSetup: "true"},
	RunE:        runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig(cmd)
	if err != nil {
		return err
	}

	displayPath := cmdutil.Flags.ConfigFile
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
		if !config.DefaultConfigExists() {
			displayPath += " (not found, using defaults)"
		}
	}

	var warnings []string
	if cfg.Metrics.Enabled && cfg.Log.Name == "" {
		warnings = append(warnings, fmt.Sprintf("log.name not set - metrics are labelled %q", cfg.Log.MetricsName()))
	}
	if w, err := logFileWarning(cfg); err != nil {
		return err
	} else if w != "" {
		warnings = append(warnings, w)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Log path:        %s\n", cfg.Log.Path)
	_, _ = fmt.Fprintf(out, "  Max size:        %s\n", cfg.Log.MaxSize.Human())
	_, _ = fmt.Fprintf(out, "  Overwrite:       %t\n", cfg.Log.OverwriteOldMessages)
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)

	return nil
}

// logFileWarning reports when the configured ring log exists but cannot be
// appended to with this configuration.
func logFileWarning(cfg *config.Config) (string, error) {
	if _, err := os.Stat(cfg.Log.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}

	cache, err := cmdutil.OpenLog(cfg, false)
	if err != nil {
		return "", err
	}
	defer func() { _ = cache.Close() }()

	writable, err := cache.IsWritable()
	if err != nil {
		return fmt.Sprintf("%s is not a readable ring log: %v", cfg.Log.Path, err), nil
	}
	if !writable {
		return fmt.Sprintf("%s was created with a different max size or overwrite policy - appends will fail", cfg.Log.Path), nil
	}
	return "", nil
}
