package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/internal/domain/solving"
	"github.com/learnhub/learnhub/pkg/logger"
	"github.com/learnhub/learnhub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW STATUS SYNC HANDLER
// Keeps the solving record of a user in step with its review:
//
//   review.submitted          -> UnderReview
//   review.revision_requested -> Rejected
//   review.started            -> UnderReview
//   review.approved           -> Completed
//
// The handler is idempotent: a record already in the target status is left
// alone, so the same event may be delivered more than once. Delivery order
// is not guaranteed either, see apply.
// ══════════════════════════════════════════════════════════════════════════════

// ReviewStatusSyncHandler handles review events.
type ReviewStatusSyncHandler struct {
	userIssueRepo solving.Repository
	clock         func() time.Time
	timeout       time.Duration
	logger        *slog.Logger
}

// NewReviewStatusSyncHandler creates a new ReviewStatusSyncHandler.
func NewReviewStatusSyncHandler(userIssueRepo solving.Repository, clock func() time.Time, log *slog.Logger) *ReviewStatusSyncHandler {
	if clock == nil {
		clock = time.Now
	}
	return &ReviewStatusSyncHandler{
		userIssueRepo: userIssueRepo,
		clock:         clock,
		timeout:       5 * time.Second,
		logger:        log.With(logger.Component("review_status_sync")),
	}
}

// EventTypes returns the events the handler reacts to.
func (h *ReviewStatusSyncHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventReviewSubmitted,
		shared.EventReviewStarted,
		shared.EventRevisionRequested,
		shared.EventReviewApproved,
	}
}

// Handle implements shared.EventHandler.
func (h *ReviewStatusSyncHandler) Handle(event shared.Event) error {
	raw, _ := event.Payload()["user_issue_id"].(string)
	userIssueID, err := shared.ParseUserIssueID(raw)
	if err != nil {
		return retry.Permanent(fmt.Errorf("review_status_sync: %s without user_issue_id: %w", event.EventType(), err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	u, err := h.userIssueRepo.GetByID(ctx, userIssueID)
	if err != nil {
		if shared.IsNotFound(err) {
			return retry.Permanent(fmt.Errorf("review_status_sync: %w", err))
		}
		return fmt.Errorf("review_status_sync: %w", err)
	}

	before := u.Status
	changed, err := h.apply(event.EventType(), u)
	if err != nil {
		return retry.Permanent(fmt.Errorf("review_status_sync: %w", err))
	}
	if !changed {
		return nil
	}

	if err := h.userIssueRepo.Save(ctx, u); err != nil {
		return fmt.Errorf("review_status_sync: %w", err)
	}

	h.logger.Info("solving status updated",
		"user_issue_id", u.ID.String(),
		logger.UserID(u.UserID.String()),
		"from", before.String(),
		"to", u.Status.String(),
	)
	return nil
}

// apply moves u towards the state the event reports. Events may arrive
// out of order, so a later review decision walks through the steps it
// skipped and an event older than the current state is ignored.
func (h *ReviewStatusSyncHandler) apply(eventType shared.EventType, u *solving.UserIssue) (bool, error) {
	switch eventType {
	case shared.EventReviewSubmitted, shared.EventReviewStarted:
		switch u.Status {
		case solving.StatusUnderReview, solving.StatusCompleted:
			return false, nil
		case solving.StatusRejected:
			if eventType == shared.EventReviewSubmitted {
				return false, nil
			}
		}
		return true, u.SubmitForReview()

	case shared.EventRevisionRequested:
		switch u.Status {
		case solving.StatusRejected, solving.StatusCompleted:
			return false, nil
		case solving.StatusAtWork:
			if err := u.SubmitForReview(); err != nil {
				return false, err
			}
		}
		return true, u.Reject()

	case shared.EventReviewApproved:
		switch u.Status {
		case solving.StatusCompleted:
			return false, nil
		case solving.StatusAtWork, solving.StatusRejected:
			if err := u.SubmitForReview(); err != nil {
				return false, err
			}
		}
		return true, u.Complete(h.clock())
	}
	return false, nil
}
