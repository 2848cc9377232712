package cli

import (
	"io"
	"sort"

	"github.com/spf13/cobra"
)

// shellGenerators writes the completion script for each supported shell.
var shellGenerators = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash":       func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":        func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish":       func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) },
}

func shells() []string {
	names := make([]string, 0, len(shellGenerators))
	for name := range shellGenerators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// completionCommand prints a shell completion script for diagrammer's
// commands and flags.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion <shell>",
		Short: "Print a shell completion script",
		Long: `Print a completion script for diagrammer to stdout.

Completes subcommands (generate, render, key, serve, ...) and flags such as
--format and --config.

  bash        source <(diagrammer completion bash)
  zsh         diagrammer completion zsh > "${fpath[1]}/_diagrammer"
  fish        diagrammer completion fish > ~/.config/fish/completions/diagrammer.fish
  powershell  diagrammer completion powershell | Out-String | Invoke-Expression

Start a new shell after installing the script.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             shells(),
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return shellGenerators[args[0]](cmd.Root(), cmd.OutOrStdout())
		},
	}
}
