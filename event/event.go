// Package event carries Telegram updates and other notifications between
// the components that receive them and the bot that processes them.
package event

import (
	"context"
	"fmt"

	"github.com/awantoch/flowbridge/config"
	"github.com/awantoch/flowbridge/constants"
)

// Handler processes one message payload. Returned errors are logged; the
// message is acknowledged either way.
type Handler func(ctx context.Context, payload []byte) error

type EventBus interface {
	// Publish sends payload to topic. []byte and string payloads are sent
	// as-is, anything else is JSON encoded.
	Publish(ctx context.Context, topic string, payload any) error
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// NewInProcEventBus returns a new in-memory event bus. Used when event config driver=="memory" or omitted.
func NewInProcEventBus() *WatermillEventBus {
	return NewWatermillInMemBus()
}

// NewEventBusFromConfig returns an EventBus based on config. Supported: memory (default), nats (with url).
func NewEventBusFromConfig(cfg *config.EventConfig) (EventBus, error) {
	if cfg == nil || cfg.Driver == "" || cfg.Driver == constants.EventDriverMemory {
		return NewWatermillInMemBus(), nil
	}
	switch cfg.Driver {
	case constants.EventDriverNATS:
		if cfg.URL == "" {
			return nil, fmt.Errorf("NATS driver requires url")
		}
		clusterID, clientID := cfg.ClusterID, cfg.ClientID
		if clusterID == "" {
			clusterID = config.DefaultNATSClusterID
		}
		if clientID == "" {
			clientID = config.DefaultNATSClientID
		}
		bus, err := NewWatermillNATSBus(clusterID, clientID, cfg.URL)
		if err != nil {
			return nil, err
		}
		return bus, nil
	default:
		return nil, fmt.Errorf("unsupported event bus driver: %s", cfg.Driver)
	}
}
