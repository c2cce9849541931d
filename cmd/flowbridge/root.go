package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/awantoch/flowbridge/api"
	"github.com/awantoch/flowbridge/config"
	"github.com/awantoch/flowbridge/telemetry"
	"github.com/awantoch/flowbridge/utils"
)

var (
	exit       = os.Exit
	configPath string
	debug      bool
)

// NewRootCmd creates the root 'flowbridge' command with persistent flags and subcommands.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "flowbridge",
		Short:        "Manage n8n workflows from the command line, MCP clients and Telegram",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "Path to flowbridge config (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logs")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		if debug {
			utils.SetDebug(true)
		}
	}

	rootCmd.AddCommand(newServeCmd(), newMCPCmd(), newTelegramCmd())
	api.AttachCLICommands(rootCmd, serviceFromFlags)
	return rootCmd
}

// loadConfig reads --config, applies the environment and sets the log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if !debug {
		if err := utils.SetLevel(cfg.Log.Level); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func serviceFromFlags(cmd *cobra.Command) (*api.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newService(cmd.Context(), cfg)
}

func newService(ctx context.Context, cfg *config.Config) (*api.Service, error) {
	svc, err := api.NewServiceFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cache := svc.Nodes.Cache(); cache != nil {
		if err := telemetry.RegisterCache("nodes", cache); err != nil {
			utils.Warn("node cache metrics unavailable: %v", err)
		}
	}
	return svc, nil
}

// startTelemetry installs the tracer provider. The returned func flushes it.
func startTelemetry(ctx context.Context, cfg *config.Config) (func(), error) {
	shutdown, err := telemetry.Init(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			utils.Warn("tracer shutdown: %v", err)
		}
	}, nil
}
