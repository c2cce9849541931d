package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	stan "github.com/nats-io/stan.go"

	"github.com/awantoch/flowbridge/utils"
)

const metadataRequestID = "request_id"

// WatermillEventBus satisfies our EventBus interface using Watermill.
type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	// shared is set when publisher and subscriber are the same pubsub.
	shared bool
}

// NewWatermillInMemBus returns a Watermill-based, in-memory bus.
func NewWatermillInMemBus() *WatermillEventBus {
	logger := watermill.NewStdLogger(false, false)
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 100}, logger)
	return &WatermillEventBus{publisher: ps, subscriber: ps, shared: true}
}

// NewWatermillNATSBus returns a NATS Streaming backed bus.
func NewWatermillNATSBus(clusterID, clientID, url string) (*WatermillEventBus, error) {
	logger := watermill.NewStdLogger(false, false)
	pub, err := nats.NewStreamingPublisher(nats.StreamingPublisherConfig{
		ClusterID: clusterID,
		ClientID:  clientID + "-pub",
		StanOptions: []stan.Option{
			stan.NatsURL(url),
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect NATS publisher: %w", err)
	}
	sub, err := nats.NewStreamingSubscriber(nats.StreamingSubscriberConfig{
		ClusterID: clusterID,
		ClientID:  clientID + "-sub",
		StanOptions: []stan.Option{
			stan.NatsURL(url),
		},
		CloseTimeout:   30 * time.Second,
		AckWaitTimeout: 30 * time.Second,
	}, logger)
	if err != nil {
		pub.Close()
		return nil, fmt.Errorf("failed to connect NATS subscriber: %w", err)
	}
	return &WatermillEventBus{publisher: pub, subscriber: sub}, nil
}

func encodePayload(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case json.RawMessage:
		return v, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return data, nil
}

func (b *WatermillEventBus) Publish(ctx context.Context, topic string, payload any) error {
	data, err := encodePayload(payload)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	if reqID, ok := utils.RequestIDFromContext(ctx); ok {
		msg.Metadata.Set(metadataRequestID, reqID)
	}
	return b.publisher.Publish(topic, msg)
}

// Subscribe consumes topic until ctx is done. Each message is handled in
// order on a single goroutine.
func (b *WatermillEventBus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	ch, err := b.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	go func() {
		for msg := range ch {
			msgCtx := ctx
			if reqID := msg.Metadata.Get(metadataRequestID); reqID != "" {
				msgCtx = utils.WithRequestID(msgCtx, reqID)
			}
			if err := handler(msgCtx, msg.Payload); err != nil {
				utils.ErrorCtx(msgCtx, "event handler failed", "topic", topic, "message_id", msg.UUID, "error", err)
			}
			msg.Ack()
		}
	}()
	return nil
}

func (b *WatermillEventBus) Close() error {
	pubErr := b.publisher.Close()
	if b.shared {
		return pubErr
	}
	return errors.Join(pubErr, b.subscriber.Close())
}
