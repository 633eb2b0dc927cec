package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for introspec.

Bash:
  $ source <(introspec completion bash)

  # To load completions for each session, execute once:
  $ introspec completion bash > /etc/bash_completion.d/introspec

Zsh:
  $ source <(introspec completion zsh)

  # To load completions for each session, execute once:
  $ introspec completion zsh > "${fpath[1]}/_introspec"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ introspec completion fish | source

  # To load completions for each session, execute once:
  $ introspec completion fish > ~/.config/fish/completions/introspec.fish

PowerShell:
  PS> introspec completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> introspec completion powershell > introspec.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			return cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			return cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
