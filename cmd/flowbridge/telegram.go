package main

import (
	"github.com/spf13/cobra"

	"github.com/awantoch/flowbridge/event"
	"github.com/awantoch/flowbridge/telegram"
	"github.com/awantoch/flowbridge/utils"
)

func newTelegramCmd() *cobra.Command {
	var webhookURL string
	cmd := &cobra.Command{
		Use:   "telegram",
		Short: "Run the Telegram bot with long polling, or register its webhook",
		Long: "Without flags the bot polls Telegram for updates and answers them until interrupted.\n" +
			"With --webhook-url the webhook is registered and the command exits; run 'flowbridge serve' to receive deliveries.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client := telegram.NewClient(cfg.Telegram)
			if !client.Configured() {
				return telegram.ErrNotConfigured
			}

			if webhookURL != "" {
				if err := client.SetWebhook(ctx, webhookURL, cfg.Telegram.WebhookSecret); err != nil {
					return err
				}
				utils.User("Telegram webhook set to %s", webhookURL)
				return nil
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
			c, err := newChat(cfg, svc)
			if err != nil {
				return err
			}
			defer c.Close()

			bus, err := event.NewEventBusFromConfig(&cfg.Event)
			if err != nil {
				return err
			}
			defer bus.Close()

			if err := c.client.DeleteWebhook(ctx); err != nil {
				return err
			}
			if err := c.bot.Start(ctx, bus); err != nil {
				return err
			}
			return telegram.NewPoller(c.client, bus, cfg.Telegram.PollTimeoutSec).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&webhookURL, "webhook-url", "", "register this public URL as the bot webhook and exit")
	return cmd
}
