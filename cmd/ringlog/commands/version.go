package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/ringlog/cmd/ringlog/cmdutil"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Show version information",
	Annotations: map[string]string{cmdutil.AnnotationNoSetup: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ringlog %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}
