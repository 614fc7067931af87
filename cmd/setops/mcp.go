package main

import (
	"github.com/claude/setops/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newMCPCmd(g *globalFlags) *cobra.Command {
	var remote, apiKey string

	c := &cobra.Command{
		Use:   "mcp",
		Short: "Serve MCP tools over stdio",
		Long: "Serve MCP tools over stdio. With --server the tools call a running setops " +
			"server; otherwise they work on the locally stored state.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the protocol, so logs go to stderr.
			if remote != "" {
				log, err := g.logger(cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				log.Info("mcp remote mode", "server", remote)
				return mcpserver.ServeStdio(mcp.New(mcp.NewHTTPClient(remote, apiKey), Version, log))
			}

			e, err := g.setup(cmd.Context(), cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer e.Close()
			return mcpserver.ServeStdio(mcp.New(mcp.Local{App: e.app, Persist: true}, Version, e.log))
		},
	}
	c.Flags().StringVar(&remote, "server", "", "setops server URL (e.g. https://setops.tail1234.ts.net)")
	c.Flags().StringVar(&apiKey, "api-key", "", "API key for mutating calls in remote mode")
	return c
}
