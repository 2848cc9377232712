package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/diagrammer/internal/mcp"
	"github.com/matzehuels/diagrammer/internal/server"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the diagram editing session over HTTP",
		Long: `Serve exposes one editing session over a JSON API. Render state changes are
pushed to websocket clients on /api/ws.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			srv := server.New(a.session, server.WithLogger(c.Logger))

			// Render the starter diagram so the preview is populated.
			go a.session.Render(ctx)

			printInfo("Listening on %s", StyleValue.Render("http://"+addr))
			printKeyValue("engine", a.loader.Name())
			printKeyValue("model", a.client.Model())
			printKeyValue("dialect", string(a.client.Dialect()))
			printKeyValue("api key", keyStatus(a.creds))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}

// mcpCommand creates the mcp command serving tools over stdio.
func (c *CLI) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve diagram tools to MCP clients over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := mcp.New(a.session, mcp.WithLogger(c.Logger))
			return srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
