package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/pkg/logger"
	"github.com/learnhub/learnhub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// Dispatcher subscribes named handlers to an event bus and runs each one
// through the middleware chain with retries. Handlers that keep failing end
// up in the dead letter queue. Wrap an error with retry.Permanent to skip
// the retries.
// ══════════════════════════════════════════════════════════════════════════════

// Dispatcher routes events from a bus to registered handlers.
type Dispatcher struct {
	subscriber  shared.EventSubscriber
	middlewares []Middleware
	retryOpts   []retry.Option
	deadLetterQ *DeadLetterQueue
	logger      *slog.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

// DispatcherConfig contains configuration for the Dispatcher.
type DispatcherConfig struct {
	Subscriber shared.EventSubscriber

	// MaxAttempts per event and handler, first attempt included.
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration

	// DeadLetterQueueSize is the max size of the DLQ.
	DeadLetterQueueSize int

	Logger *slog.Logger
}

// DefaultDispatcherConfig returns sensible defaults.
func DefaultDispatcherConfig(subscriber shared.EventSubscriber) DispatcherConfig {
	return DispatcherConfig{
		Subscriber:          subscriber,
		MaxAttempts:         3,
		InitialDelay:        100 * time.Millisecond,
		MaxDelay:            5 * time.Second,
		DeadLetterQueueSize: 1000,
	}
}

// NewDispatcher creates a new event dispatcher.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		subscriber: config.Subscriber,
		retryOpts: []retry.Option{
			retry.WithMaxAttempts(config.MaxAttempts),
			retry.WithInitialDelay(config.InitialDelay),
			retry.WithMaxDelay(config.MaxDelay),
			retry.WithRetryIf(func(err error) bool { return !errors.Is(err, context.Canceled) }),
		},
		deadLetterQ: NewDeadLetterQueue(config.DeadLetterQueueSize),
		logger:      config.Logger.With(logger.Component("dispatcher")),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Use adds middleware to the dispatcher. Middleware applies to handlers
// registered afterwards.
func (d *Dispatcher) Use(middleware Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middlewares = append(d.middlewares, middleware)
}

// Register subscribes a named handler to the given event types.
func (d *Dispatcher) Register(name string, handler shared.EventHandler, eventTypes ...shared.EventType) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	d.mu.RLock()
	chain := handler
	for i := len(d.middlewares) - 1; i >= 0; i-- {
		chain = d.middlewares[i](chain)
	}
	d.mu.RUnlock()

	wrapped := func(event shared.Event) error {
		return d.execute(name, chain, event)
	}

	for _, t := range eventTypes {
		if err := d.subscriber.Subscribe(t, wrapped); err != nil {
			return fmt.Errorf("register %s for %s: %w", name, t, err)
		}
		d.logger.Debug("registered handler", "event_type", t, "handler_name", name)
	}
	return nil
}

func (d *Dispatcher) execute(name string, handler shared.EventHandler, event shared.Event) error {
	attempts := 0
	err := retry.Do(d.ctx, func(context.Context) error {
		attempts++
		return handler(event)
	}, d.retryOpts...)
	if err == nil {
		return nil
	}

	d.deadLetterQ.Add(DeadLetterEntry{
		Event:       event,
		HandlerName: name,
		Error:       err,
		Attempts:    attempts,
		FailedAt:    time.Now(),
	})
	return fmt.Errorf("handler %s failed after %d attempts: %w", name, attempts, err)
}

// Stop cancels pending retries.
func (d *Dispatcher) Stop() {
	d.cancel()
	d.logger.Info("dispatcher stopped")
}

// DeadLetterQueue returns the dead letter queue.
func (d *Dispatcher) DeadLetterQueue() *DeadLetterQueue {
	return d.deadLetterQ
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// Middleware wraps handler execution.
type Middleware func(shared.EventHandler) shared.EventHandler

// RecoveryMiddleware turns handler panics into permanent errors.
func RecoveryMiddleware(log *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("handler panic recovered",
						"event_type", event.EventType(),
						"panic", r,
						"stack", string(debug.Stack()),
					)
					err = retry.Permanent(fmt.Errorf("%w: %v", ErrHandlerPanic, r))
				}
			}()
			return next(event)
		}
	}
}

// LoggingMiddleware logs handler execution.
func LoggingMiddleware(log *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			start := time.Now()
			err := next(event)

			if err != nil {
				log.Error("handler failed",
					"event_type", event.EventType(),
					"aggregate_id", event.AggregateID(),
					logger.Latency(time.Since(start)),
					logger.Err(err),
				)
			} else {
				log.Debug("handler completed",
					"event_type", event.EventType(),
					"aggregate_id", event.AggregateID(),
					logger.Latency(time.Since(start)),
				)
			}
			return err
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEAD LETTER QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// DeadLetterEntry represents a failed event.
type DeadLetterEntry struct {
	Event       shared.Event
	HandlerName string
	Error       error
	Attempts    int
	FailedAt    time.Time
}

// DeadLetterQueue keeps the most recent failed events, oldest dropped first.
type DeadLetterQueue struct {
	mu      sync.RWMutex
	entries []DeadLetterEntry
	maxSize int
}

// NewDeadLetterQueue creates a new dead letter queue.
func NewDeadLetterQueue(maxSize int) *DeadLetterQueue {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &DeadLetterQueue{maxSize: maxSize}
}

// Add adds an entry to the queue.
func (q *DeadLetterQueue) Add(entry DeadLetterEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) >= q.maxSize {
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, entry)
}

// Entries returns all entries.
func (q *DeadLetterQueue) Entries() []DeadLetterEntry {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]DeadLetterEntry, len(q.entries))
	copy(result, q.entries)
	return result
}

// Size returns the current queue size.
func (q *DeadLetterQueue) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}
