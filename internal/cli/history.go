package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/diagrammer/pkg/history"
)

// historyCommand creates the history command listing past generations.
func (c *CLI) historyCommand() *cobra.Command {
	var (
		limit  int
		source bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent generations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := c.newHistory(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(ctx, limit)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}
			if len(entries) == 0 {
				printInfo("No generations yet")
				return nil
			}
			for _, e := range entries {
				printHistoryEntry(e)
				if source {
					fmt.Fprintln(cmd.OutOrStdout(), e.Source)
					fmt.Fprintln(cmd.OutOrStdout())
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultLimit, "number of entries to show")
	cmd.Flags().BoolVar(&source, "source", false, "print the generated source of each entry")

	return cmd
}
