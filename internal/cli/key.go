package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/diagrammer/pkg/credential"
)

// keyCommand creates the API key management command.
func (c *CLI) keyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the OpenAI API key",
	}

	cmd.AddCommand(c.keySetCommand())
	cmd.AddCommand(c.keyClearCommand())
	cmd.AddCommand(c.keyShowCommand())

	return cmd
}

func (c *CLI) openCredentials() (*credential.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return c.newCredentials(cfg)
}

// keySetCommand creates the "key set" subcommand.
func (c *CLI) keySetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set [key]",
		Short: "Store the API key (prompts when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := c.openCredentials()
			if err != nil {
				return err
			}

			var input string
			if len(args) == 1 {
				input = args[0]
			} else {
				input, err = promptKey(cmd.Context())
				if errors.Is(err, errPromptCancelled) {
					printInfo("Key unchanged")
					return nil
				}
				if err != nil {
					return fmt.Errorf("read key: %w", err)
				}
			}

			if !creds.Save(input) {
				printInfo("Key unchanged")
				return nil
			}
			if !creds.IsSet() {
				printSuccess("API key cleared")
				return nil
			}
			printSuccess("API key saved")
			printDetail("%s", creds.Masked())
			return nil
		},
	}
}

// keyClearCommand creates the "key clear" subcommand.
func (c *CLI) keyClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := c.openCredentials()
			if err != nil {
				return err
			}
			creds.Clear()
			printSuccess("API key cleared")
			return nil
		},
	}
}

// keyShowCommand creates the "key show" subcommand.
func (c *CLI) keyShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored API key, masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := c.openCredentials()
			if err != nil {
				return err
			}
			if !creds.IsSet() {
				printWarning("No API key stored")
				printDetail("Run: %s key set", appName)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), creds.Masked())
			return nil
		},
	}
}

// keyStatus describes the stored key for status output.
func keyStatus(creds *credential.Store) string {
	if !creds.IsSet() {
		return "not set"
	}
	return creds.Masked()
}
