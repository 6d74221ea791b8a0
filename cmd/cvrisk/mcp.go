package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prime-cvd-risk/internal/mcp"
)

func newMCPCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the risk engine as MCP tools using the mcp config section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			engine, err := c.engine(ctx)
			if err != nil {
				return err
			}

			cfg := c.config.GetConfig().MCP
			server, err := mcp.NewServer(engine,
				mcp.WithLogger(c.logger),
				mcp.WithTransport(cfg.TransportType, cfg.HTTPPort),
				mcp.WithImplementation(cfg.ServerName, cfg.ServerVersion),
			)
			if err != nil {
				return err
			}
			defer server.Close()

			return server.Start(ctx)
		},
	}
}
