package command

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/learnhub/learnhub/internal/domain/review"
	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/pkg/logger"
	"github.com/learnhub/learnhub/pkg/retry"
)

// ReviewWriter runs load -> mutate -> save cycles on IssueReview aggregates,
// retrying lost version races like ModuleWriter does.
type ReviewWriter struct {
	repo      review.Repository
	publisher shared.EventPublisher
	retrier   *retry.Retrier
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewReviewWriter creates a new ReviewWriter.
func NewReviewWriter(
	repo review.Repository,
	publisher shared.EventPublisher,
	tracer trace.Tracer,
	log *slog.Logger,
	maxAttempts int,
) *ReviewWriter {
	w := &ReviewWriter{
		repo:      repo,
		publisher: publisher,
		tracer:    tracer,
		logger:    log.With(logger.Component("review_writer")),
	}
	w.retrier = retry.OptimisticRetrier(maxAttempts, shared.IsConflict)
	return w
}

// Mutate loads the review, applies fn and saves it.
func (w *ReviewWriter) Mutate(ctx context.Context, op string, id shared.ReviewID, fn func(r *review.IssueReview) error) (*review.IssueReview, error) {
	ctx, span := w.tracer.Start(ctx, "review."+op, trace.WithAttributes(
		attribute.String("review.id", id.String()),
	))
	defer span.End()

	var saved *review.IssueReview
	err := w.retrier.Do(ctx, func(ctx context.Context) error {
		r, err := w.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
		if err := w.repo.Save(ctx, r); err != nil {
			return err
		}
		saved = r
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

// Create stores a new review and publishes its events.
func (w *ReviewWriter) Create(ctx context.Context, r *review.IssueReview) error {
	if err := w.repo.Add(ctx, r); err != nil {
		return err
	}
	w.publish(r.PullEvents())
	return nil
}

func (w *ReviewWriter) publish(events []shared.Event) {
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

func requireReviewID(op string, id shared.ReviewID) error {
	if id == (shared.ReviewID{}) {
		return shared.Invalid("command", op, "review_id")
	}
	return nil
}

func requireUserID(op string, id shared.UserID) error {
	if id.IsEmpty() {
		return shared.Invalid("command", op, "user_id")
	}
	return nil
}
