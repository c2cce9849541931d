package telegram

import (
	"context"
	"errors"
	"time"

	"github.com/awantoch/flowbridge/constants"
	"github.com/awantoch/flowbridge/event"
	"github.com/awantoch/flowbridge/telemetry"
	"github.com/awantoch/flowbridge/utils"
)

// Update sources, used as the metrics label.
const (
	SourcePoll    = "poll"
	SourceWebhook = "webhook"
)

// pollErrorDelay is the pause after a failed getUpdates call.
var pollErrorDelay = 3 * time.Second

// UpdateSource is the getUpdates side of the Bot API.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error)
}

// Poller long-polls Telegram and publishes every update to the event bus.
type Poller struct {
	source     UpdateSource
	bus        event.EventBus
	timeoutSec int
	offset     int64
}

func NewPoller(source UpdateSource, bus event.EventBus, timeoutSec int) *Poller {
	return &Poller{source: source, bus: bus, timeoutSec: timeoutSec}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	utils.Info("Polling Telegram for updates (timeout %ds)", p.timeoutSec)
	for {
		if ctx.Err() != nil {
			return nil
		}
		updates, err := p.source.GetUpdates(ctx, p.offset, p.timeoutSec)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, ErrNotConfigured) {
				return err
			}
			utils.Warn("telegram getUpdates failed: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(pollErrorDelay):
			}
			continue
		}
		for _, u := range updates {
			p.offset = u.UpdateID + 1
			if err := p.bus.Publish(ctx, constants.TopicTelegramUpdate, u); err != nil {
				utils.Error("failed to publish telegram update %d: %v", u.UpdateID, err)
				continue
			}
			telemetry.ObserveTelegramUpdate(SourcePoll)
		}
	}
}
