package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingEvent struct {
	BaseEvent
}

func (pingEvent) EventName() string { return "test.ping" }

func TestPublishRunsHandlersAsync(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var calls int32
	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, e Event) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("ignored")
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, e Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))

	bus.Publish(context.Background(), pingEvent{BaseEvent: NewBaseEvent(time.Now())})
	bus.Wait()

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPublishSyncJoinsErrorsAndRecoversPanics(t *testing.T) {
	bus := NewInMemoryBus(nil)
	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, e Event) error {
		panic("boom")
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, e Event) error {
		return errors.New("second")
	}))

	err := bus.PublishSync(context.Background(), pingEvent{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panic: boom")
	assert.Contains(t, err.Error(), "second")
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewInMemoryBus(nil)
	bus.Publish(context.Background(), pingEvent{})
	assert.NoError(t, bus.PublishSync(context.Background(), pingEvent{}))
}

type pongEvent struct {
	BaseEvent
}

func (pongEvent) EventName() string { return "test.pong" }

func TestSubscribeAllRegistersEveryName(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var seen []string
	SubscribeAll(bus, HandlerFunc(func(ctx context.Context, e Event) error {
		seen = append(seen, e.EventName())
		return nil
	}), "test.ping", "test.pong")

	require.NoError(t, bus.PublishSync(context.Background(), pingEvent{}))
	require.NoError(t, bus.PublishSync(context.Background(), pongEvent{}))
	assert.Equal(t, []string{"test.ping", "test.pong"}, seen)
}
