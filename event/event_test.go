package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/awantoch/flowbridge/config"
	"github.com/awantoch/flowbridge/utils"
)

func TestNewInProcEventBus(t *testing.T) {
	bus := NewInProcEventBus()
	if bus == nil {
		t.Fatal("expected non-nil event bus")
	}
	if err := bus.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestEventBus_RoundTrip(t *testing.T) {
	bus := NewInProcEventBus()
	defer bus.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	received := make(chan []byte, 1)
	err := bus.Subscribe(ctx, "test-topic", func(ctx context.Context, payload []byte) error {
		received <- payload
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := bus.Publish(ctx, "test-topic", map[string]any{"chat": 42}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case payload := <-received:
		var m map[string]any
		if err := json.Unmarshal(payload, &m); err != nil {
			t.Fatalf("payload is not JSON: %v", err)
		}
		if m["chat"] != float64(42) {
			t.Errorf("unexpected payload: %v", m)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestEventBus_PropagatesRequestID(t *testing.T) {
	bus := NewInProcEventBus()
	defer bus.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ids := make(chan string, 1)
	if err := bus.Subscribe(ctx, "ids", func(ctx context.Context, _ []byte) error {
		id, _ := utils.RequestIDFromContext(ctx)
		ids <- id
		return nil
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := bus.Publish(utils.WithRequestID(ctx, "req-1"), "ids", "x"); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	select {
	case id := <-ids:
		if id != "req-1" {
			t.Errorf("expected req-1, got %q", id)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestEventBus_HandlerErrorDoesNotStopSubscription(t *testing.T) {
	bus := NewInProcEventBus()
	defer bus.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got := make(chan string, 2)
	if err := bus.Subscribe(ctx, "errs", func(ctx context.Context, payload []byte) error {
		got <- string(payload)
		return errors.New("boom")
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	for _, p := range []string{"one", "two"} {
		if err := bus.Publish(ctx, "errs", p); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}
	for _, want := range []string{"one", "two"} {
		select {
		case p := <-got:
			if p != want {
				t.Errorf("expected %q, got %q", want, p)
			}
		case <-ctx.Done():
			t.Fatal("timed out waiting for message")
		}
	}
}

func TestEncodePayload(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"hello", "hello"},
		{[]byte("bytes"), "bytes"},
		{json.RawMessage(`{"a":1}`), `{"a":1}`},
		{map[string]any{"k": "v"}, `{"k":"v"}`},
		{123, "123"},
	}
	for _, tc := range cases {
		got, err := encodePayload(tc.in)
		if err != nil {
			t.Fatalf("encodePayload(%v) failed: %v", tc.in, err)
		}
		if string(got) != tc.want {
			t.Errorf("encodePayload(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if _, err := encodePayload(map[string]any{"bad": make(chan int)}); err == nil {
		t.Error("expected error for unmarshalable payload")
	}
}

func TestNewEventBusFromConfig_Memory(t *testing.T) {
	bus, err := NewEventBusFromConfig(&config.EventConfig{Driver: "memory"})
	if err != nil {
		t.Errorf("NewEventBusFromConfig failed: %v", err)
	}
	if bus == nil {
		t.Error("expected non-nil event bus")
	}
}

func TestNewEventBusFromConfig_NATSRequiresURL(t *testing.T) {
	if _, err := NewEventBusFromConfig(&config.EventConfig{Driver: "nats"}); err == nil {
		t.Error("expected error for nats without url")
	}
}

func TestNewEventBusFromConfig_Unknown(t *testing.T) {
	bus, err := NewEventBusFromConfig(&config.EventConfig{Driver: "unknown"})
	if err == nil {
		t.Error("Expected error for unknown driver")
	}
	if bus != nil {
		t.Error("Expected nil event bus for unknown driver")
	}
}
