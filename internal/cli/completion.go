package cli

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipegraph/pkg/layout"
)

// completionCommand creates the completion command for generating shell
// completions. Graph file arguments complete to *.json files.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for pipegraph.

To load completions:

Bash:
  $ source <(pipegraph completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ pipegraph completion bash > /etc/bash_completion.d/pipegraph
  # macOS:
  $ pipegraph completion bash > $(brew --prefix)/etc/bash_completion.d/pipegraph

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ pipegraph completion zsh > "${fpath[1]}/_pipegraph"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ pipegraph completion fish | source

  # To load completions for each session, execute once:
  $ pipegraph completion fish > ~/.config/fish/completions/pipegraph.fish

PowerShell:
  PS> pipegraph completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> pipegraph completion powershell > pipegraph.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}

	return cmd
}

// graphCommands take a graph file as their first argument.
var graphCommands = []string{"layout", "lineage", "related", "slice", "inspect", "render", "explore"}

// registerCompletions adds file and flag value completions to root's
// subcommands.
func registerCompletions(root *cobra.Command) {
	for _, sub := range root.Commands() {
		if !slices.Contains(graphCommands, sub.Name()) {
			continue
		}
		sub.ValidArgsFunction = completeGraphFile
		if sub.Flags().Lookup("strategy") != nil {
			_ = sub.RegisterFlagCompletionFunc("strategy", fixedCompletion(strategyNames()...))
		}
	}
}

func completeGraphFile(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return []string{"json"}, cobra.ShellCompDirectiveFilterFileExt
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func fixedCompletion(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

func strategyNames() []string {
	names := make([]string, len(layout.Strategies))
	for i, s := range layout.Strategies {
		names[i] = string(s)
	}
	return names
}
