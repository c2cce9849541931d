package main

import (
	"github.com/spf13/cobra"

	"github.com/awantoch/flowbridge/api"
	mcpserver "github.com/awantoch/flowbridge/mcp"
)

// newMCPCmd creates the 'mcp' subcommand and its subcommands.
func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Model Context Protocol server",
	}
	cmd.AddCommand(newMCPServeCmd())
	return cmd
}

func newMCPServeCmd() *cobra.Command {
	var useHTTP bool
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve every operation as an MCP tool (stdio or HTTP)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			stopTelemetry, err := startTelemetry(ctx, cfg)
			if err != nil {
				return err
			}
			defer stopTelemetry()

			svc, err := newService(ctx, cfg)
			if err != nil {
				return err
			}
			opts := mcpserver.Options{Stdio: !useHTTP, Addr: addr, Debug: debug}
			return mcpserver.Serve(ctx, opts, api.GenerateMCPTools(svc))
		},
	}
	cmd.Flags().BoolVar(&useHTTP, "http", false, "serve over HTTP instead of stdin/stdout")
	cmd.Flags().StringVar(&addr, "addr", ":9090", "listen address for HTTP mode")
	return cmd
}
