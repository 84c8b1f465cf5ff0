// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/learnhub/learnhub/internal/domain/module"
	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/pkg/logger"
	"github.com/learnhub/learnhub/pkg/retry"
)

// Clock returns the current time. Handlers take it so tests can pin time.
type Clock func() time.Time

// ══════════════════════════════════════════════════════════════════════════════
// MODULE WRITER
// Runs load -> mutate -> save cycles on the Module aggregate. A save that
// loses the optimistic version race is retried on freshly loaded state;
// once attempts run out the ConflictError is returned to the caller.
// ══════════════════════════════════════════════════════════════════════════════

// ModuleWriter is shared by every command that mutates a Module.
type ModuleWriter struct {
	repo      module.Repository
	publisher shared.EventPublisher
	retrier   *retry.Retrier
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewModuleWriter creates a new ModuleWriter.
func NewModuleWriter(
	repo module.Repository,
	publisher shared.EventPublisher,
	tracer trace.Tracer,
	log *slog.Logger,
	maxAttempts int,
) *ModuleWriter {
	w := &ModuleWriter{
		repo:      repo,
		publisher: publisher,
		tracer:    tracer,
		logger:    log.With(logger.Component("module_writer")),
	}
	w.retrier = retry.New(
		retry.WithMaxAttempts(maxAttempts),
		retry.WithInitialDelay(5*time.Millisecond),
		retry.WithMaxDelay(100*time.Millisecond),
		retry.WithRetryIf(shared.IsConflict),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			w.logger.Warn("module version conflict, retrying",
				"attempt", attempt,
				"delay", delay,
				logger.Err(err),
			)
		}),
	)
	return w
}

// Mutate loads the module, applies fn and saves the result. Events recorded
// by fn are published only after the save committed.
func (w *ModuleWriter) Mutate(ctx context.Context, op string, id shared.ModuleID, fn func(m *module.Module) error) (*module.Module, error) {
	ctx, span := w.tracer.Start(ctx, "module."+op, trace.WithAttributes(
		attribute.String("module.id", id.String()),
	))
	defer span.End()

	var saved *module.Module
	err := w.retrier.Do(ctx, func(ctx context.Context) error {
		m, err := w.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
		if err := w.repo.Save(ctx, m); err != nil {
			return err
		}
		saved = m
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	w.publish(saved.PullEvents())
	return saved, nil
}

// Create stores a brand new module and publishes its events.
func (w *ModuleWriter) Create(ctx context.Context, m *module.Module) error {
	ctx, span := w.tracer.Start(ctx, "module.create", trace.WithAttributes(
		attribute.String("module.id", m.ID().String()),
	))
	defer span.End()

	if err := w.repo.Add(ctx, m); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	w.publish(m.PullEvents())
	return nil
}

func (w *ModuleWriter) publish(events []shared.Event) {
	if w.publisher == nil {
		return
	}
	for _, e := range events {
		if err := w.publisher.Publish(e); err != nil {
			w.logger.Warn("failed to publish event",
				"event_type", e.EventType(),
				"aggregate_id", e.AggregateID(),
				logger.Err(err),
			)
		}
	}
}

func requireModuleID(op string, id shared.ModuleID) error {
	if id == (shared.ModuleID{}) {
		return shared.Invalid("command", op, "module_id")
	}
	return nil
}

func requireIssueID(op string, id shared.IssueID) error {
	if id == (shared.IssueID{}) {
		return shared.Invalid("command", op, "issue_id")
	}
	return nil
}
