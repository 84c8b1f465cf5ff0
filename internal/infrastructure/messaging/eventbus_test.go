package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/pkg/logger"
)

func syncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{Logger: logger.Discard()})
}

func TestInMemoryEventBus_DeliversByType(t *testing.T) {
	bus := syncBus()
	moduleID := shared.NewModuleID()

	var got []shared.EventType
	require.NoError(t, bus.Subscribe(shared.EventIssueAdded, func(e shared.Event) error {
		got = append(got, e.EventType())
		return nil
	}))
	var all int
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		all++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewIssueChangedEvent(shared.EventIssueAdded, moduleID, shared.NewIssueID(), shared.MustPosition(1))))
	require.NoError(t, bus.Publish(shared.NewModuleLifecycleEvent(shared.EventModuleDeleted, moduleID, nil)))

	assert.Equal(t, []shared.EventType{shared.EventIssueAdded}, got)
	assert.Equal(t, 2, all)
	assert.Equal(t, StatsSnapshot{Published: 2, Handled: 3}, bus.Stats())
}

func TestInMemoryEventBus_HandlerFailuresDoNotFailPublish(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return errors.New("boom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("bad handler") }))

	err := bus.Publish(shared.NewModuleLifecycleEvent(shared.EventModuleCreated, shared.NewModuleID(), nil))
	require.NoError(t, err)
	assert.Equal(t, int64(2), bus.Stats().Failed)
}

func TestInMemoryEventBus_AsyncDrainsOnClose(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2, Logger: logger.Discard()})

	var mu sync.Mutex
	count := 0
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(shared.NewModuleLifecycleEvent(shared.EventModuleUpdated, shared.NewModuleID(), nil)))
	}
	require.NoError(t, bus.Close())

	assert.Equal(t, 10, count)
	assert.ErrorIs(t, bus.Publish(shared.NewModuleLifecycleEvent(shared.EventModuleUpdated, shared.NewModuleID(), nil)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)
}

// loopbackPubSub delivers published messages to every subscriber, like a
// single Redis channel shared by several instances.
type loopbackPubSub struct {
	mu   sync.Mutex
	subs []chan RedisMessage
}

func (l *loopbackPubSub) Publish(_ context.Context, channel, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.subs {
		s <- RedisMessage{Channel: channel, Payload: message}
	}
	return nil
}

func (l *loopbackPubSub) Subscribe(context.Context, string) (<-chan RedisMessage, func() error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch := make(chan RedisMessage, 16)
	l.subs = append(l.subs, ch)
	return ch, func() error { return nil }, nil
}

func TestRedisEventBus_ReplaysRemoteEventsOnly(t *testing.T) {
	pubsub := &loopbackPubSub{}
	newBus := func(id string) *RedisEventBus {
		bus, err := NewRedisEventBus(RedisEventBusConfig{
			Client:         pubsub,
			InstanceID:     id,
			LocalBusConfig: InMemoryEventBusConfig{Logger: logger.Discard()},
			Logger:         logger.Discard(),
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = bus.Close() })
		return bus
	}
	a, b := newBus("a"), newBus("b")

	received := make(chan shared.Event, 4)
	record := func(e shared.Event) error {
		received <- e
		return nil
	}
	require.NoError(t, a.Subscribe(shared.EventIssueSoftDeleted, record))
	require.NoError(t, b.Subscribe(shared.EventIssueSoftDeleted, record))

	moduleID := shared.NewModuleID()
	require.NoError(t, a.Publish(shared.NewIssueChangedEvent(shared.EventIssueSoftDeleted, moduleID, shared.NewIssueID(), shared.MustPosition(2))))

	var events []shared.Event
	for len(events) < 2 {
		select {
		case e := <-received:
			events = append(events, e)
		case <-time.After(2 * time.Second):
			t.Fatalf("expected 2 deliveries, got %d", len(events))
		}
	}

	select {
	case e := <-received:
		t.Fatalf("unexpected extra delivery: %v", e.EventType())
	case <-time.After(50 * time.Millisecond):
	}

	var remote RemoteEvent
	for _, e := range events {
		if r, ok := e.(RemoteEvent); ok {
			remote = r
		}
	}
	assert.Equal(t, moduleID.String(), remote.AggregateID())
	assert.Equal(t, shared.EventIssueSoftDeleted, remote.EventType())
	assert.Equal(t, moduleID.String(), remote.Payload()["module_id"])
}

func TestEventEnvelope_JSON(t *testing.T) {
	data, err := json.Marshal(eventEnvelope{InstanceID: "x", EventType: shared.EventIssueAdded, AggregateID: "m"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"event_type":"issue.added"`)
}
