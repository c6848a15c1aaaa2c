package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/interfaces"
	"github.com/ternarybob/ragchain/internal/models"
)

func TestSubscribe_NilHandler(t *testing.T) {
	service := NewService(arbor.NewLogger())
	assert.Error(t, service.Subscribe(interfaces.EventIngestionStarted, nil))
}

func TestPublish_DeliversToHandlersOfType(t *testing.T) {
	service := NewService(arbor.NewLogger())

	var started, completed atomic.Int32
	require.NoError(t, service.Subscribe(interfaces.EventIngestionStarted, func(ctx context.Context, event interfaces.Event) error {
		started.Add(1)
		return nil
	}))
	require.NoError(t, service.Subscribe(interfaces.EventIngestionCompleted, func(ctx context.Context, event interfaces.Event) error {
		completed.Add(1)
		return nil
	}))

	require.NoError(t, service.Publish(context.Background(), interfaces.Event{Type: interfaces.EventIngestionStarted}))
	require.NoError(t, service.Close())

	assert.Equal(t, int32(1), started.Load())
	assert.Equal(t, int32(0), completed.Load())
}

func TestPublish_OutlivesPublisherContext(t *testing.T) {
	service := NewService(arbor.NewLogger())
	received := make(chan error, 1)

	require.NoError(t, service.Subscribe(interfaces.EventDocumentsChanged, func(ctx context.Context, event interfaces.Event) error {
		time.Sleep(20 * time.Millisecond)
		received <- ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	payload := map[string]interface{}{"path": "/data/report.txt", "op": "created"}
	require.NoError(t, service.Publish(ctx, interfaces.Event{Type: interfaces.EventDocumentsChanged, Payload: payload}))
	cancel()

	select {
	case err := <-received:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestPublish_HandlerErrorAndPanicAreContained(t *testing.T) {
	service := NewService(arbor.NewLogger())

	var delivered atomic.Int32
	require.NoError(t, service.Subscribe(interfaces.EventIngestionFailed, func(ctx context.Context, event interfaces.Event) error {
		return errors.New("boom")
	}))
	require.NoError(t, service.Subscribe(interfaces.EventIngestionFailed, func(ctx context.Context, event interfaces.Event) error {
		panic("handler bug")
	}))
	require.NoError(t, service.Subscribe(interfaces.EventIngestionFailed, func(ctx context.Context, event interfaces.Event) error {
		delivered.Add(1)
		return nil
	}))

	require.NoError(t, service.Publish(context.Background(), interfaces.Event{Type: interfaces.EventIngestionFailed}))
	require.NoError(t, service.Close())
	assert.Equal(t, int32(1), delivered.Load())
}

func TestClose_WaitsForDeliveriesAndRejectsNewEvents(t *testing.T) {
	service := NewService(arbor.NewLogger())

	var finished atomic.Bool
	require.NoError(t, service.Subscribe(interfaces.EventIngestionCompleted, func(ctx context.Context, event interfaces.Event) error {
		time.Sleep(30 * time.Millisecond)
		finished.Store(true)
		return nil
	}))

	require.NoError(t, service.Publish(context.Background(), interfaces.Event{Type: interfaces.EventIngestionCompleted}))
	require.NoError(t, service.Close())
	assert.True(t, finished.Load())

	err := service.Publish(context.Background(), interfaces.Event{Type: interfaces.EventIngestionCompleted})
	assert.ErrorIs(t, err, interfaces.ErrEventServiceClosed)
	assert.ErrorIs(t, service.Subscribe(interfaces.EventIngestionCompleted, NewLoggerSubscriber(arbor.NewLogger())), interfaces.ErrEventServiceClosed)
}

func TestLoggerSubscriber_HandlesEveryPayload(t *testing.T) {
	subscriber := NewLoggerSubscriber(arbor.NewLogger())
	ctx := context.Background()

	published := []interfaces.Event{
		{Type: interfaces.EventIngestionCompleted, Payload: models.IngestResult{Status: models.IngestSuccess, Count: 1, Chunks: 3}},
		{Type: interfaces.EventIngestionFailed, Payload: models.IngestResult{Status: models.IngestFailure, Err: errors.New("embed failed")}},
		{Type: interfaces.EventIngestionStarted, Payload: map[string]interface{}{"trigger": "watcher"}},
		{Type: interfaces.EventDocumentsChanged, Payload: nil},
	}
	for _, event := range published {
		assert.NoError(t, subscriber(ctx, event))
	}
}

func TestSubscribeLoggerToAllEvents(t *testing.T) {
	service := NewService(arbor.NewLogger())
	require.NoError(t, SubscribeLoggerToAllEvents(service, arbor.NewLogger()))

	for _, eventType := range interfaces.AllEventTypes {
		assert.Equal(t, 1, service.handlerCount(eventType), string(eventType))
	}
}
