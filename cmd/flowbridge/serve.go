package main

import (
	"github.com/spf13/cobra"

	"github.com/awantoch/flowbridge/event"
	apphttp "github.com/awantoch/flowbridge/http"
	"github.com/awantoch/flowbridge/telegram"
	"github.com/awantoch/flowbridge/utils"
)

// newServeCmd creates the 'serve' subcommand.
func newServeCmd() *cobra.Command {
	var addr string
	var poll bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API, the Telegram webhook, health and metrics",
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
			bus, err := event.NewEventBusFromConfig(&cfg.Event)
			if err != nil {
				return err
			}
			defer bus.Close()

			opts := apphttp.Options{}
			if cfg.Telegram.Token != "" {
				c, err := newChat(cfg, svc)
				if err != nil {
					return err
				}
				defer c.Close()
				if err := c.bot.Start(ctx, bus); err != nil {
					return err
				}
				opts.Bus = bus
				opts.WebhookSecret = cfg.Telegram.WebhookSecret

				if poll {
					if err := c.client.DeleteWebhook(ctx); err != nil {
						return err
					}
					go func() {
						if err := telegram.NewPoller(c.client, bus, cfg.Telegram.PollTimeoutSec).Run(ctx); err != nil {
							utils.Error("telegram poller stopped: %v", err)
						}
					}()
				}
			} else {
				utils.Info("Telegram bot token not set, webhook disabled")
			}

			if addr == "" {
				addr = cfg.HTTP.Addr()
			}
			return apphttp.ListenAndServe(ctx, addr, apphttp.NewHandler(svc, opts))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to http.host:http.port from the config)")
	cmd.Flags().BoolVar(&poll, "telegram-poll", false, "receive Telegram updates by long polling instead of the webhook")
	return cmd
}
