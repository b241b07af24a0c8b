package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/ringlog/cmd/ringlog/cmdutil"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for ringlog.

Bash:
  $ ringlog completion bash > /etc/bash_completion.d/ringlog

Zsh:
  $ ringlog completion zsh > "${fpath[1]}/_ringlog"

Fish:
  $ ringlog completion fish > ~/.config/fish/completions/ringlog.fish

PowerShell:
  PS> ringlog completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Annotations:           map[string]string{cmdutil.AnnotationNoSetup: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(out)
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(out)
		}
		return nil
	},
}
