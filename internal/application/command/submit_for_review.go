package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/learnhub/learnhub/internal/domain/review"
	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/internal/domain/solving"
	"github.com/learnhub/learnhub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT FOR REVIEW COMMAND
// Opens an IssueReview for a pull request. The solving record moves to
// UnderReview through the review event handler.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitForReviewCommand contains the data to submit work for review.
type SubmitForReviewCommand struct {
	UserID         shared.UserID
	UserIssueID    shared.UserIssueID
	PullRequestURL string
}

// Validate validates the command.
func (c SubmitForReviewCommand) Validate() error {
	if err := requireUserID("submit_for_review", c.UserID); err != nil {
		return err
	}
	if c.UserIssueID == (shared.UserIssueID{}) {
		return shared.Invalid("command", "submit_for_review", "user_issue_id")
	}
	return nil
}

// SubmitForReviewResult contains the opened review.
type SubmitForReviewResult struct {
	ReviewID shared.ReviewID
}

// SubmitForReviewHandler handles the SubmitForReviewCommand.
type SubmitForReviewHandler struct {
	userIssueRepo solving.Repository
	reviewRepo    review.Repository
	writer        *ReviewWriter
	clock         Clock
	logger        *slog.Logger
}

// NewSubmitForReviewHandler creates a new SubmitForReviewHandler.
func NewSubmitForReviewHandler(
	userIssueRepo solving.Repository,
	reviewRepo review.Repository,
	writer *ReviewWriter,
	clock Clock,
	log *slog.Logger,
) *SubmitForReviewHandler {
	return &SubmitForReviewHandler{
		userIssueRepo: userIssueRepo,
		reviewRepo:    reviewRepo,
		writer:        writer,
		clock:         clock,
		logger:        log,
	}
}

// Handle executes the submit for review command.
func (h *SubmitForReviewHandler) Handle(ctx context.Context, cmd SubmitForReviewCommand) (*SubmitForReviewResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("submit_for_review: validation failed: %w", err)
	}
	url, err := shared.NewPullRequestURL(cmd.PullRequestURL)
	if err != nil {
		return nil, fmt.Errorf("submit_for_review: validation failed: %w", err)
	}

	userIssue, err := h.userIssueRepo.GetByID(ctx, cmd.UserIssueID)
	if err != nil {
		return nil, fmt.Errorf("submit_for_review: %w", err)
	}
	if userIssue.UserID != cmd.UserID {
		return nil, fmt.Errorf("submit_for_review: %w", shared.Invalid("solving", "SubmitForReview", "userId"))
	}
	if userIssue.Status != solving.StatusAtWork {
		return nil, fmt.Errorf("submit_for_review: %w", shared.Invalid("solving", "SubmitForReview", "user-issue-status"))
	}

	_, err = h.reviewRepo.GetByUserIssueID(ctx, cmd.UserIssueID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("submit_for_review: %w", shared.ErrReviewExists)
	case !shared.IsNotFound(err):
		return nil, fmt.Errorf("submit_for_review: %w", err)
	}

	r := review.NewIssueReview(cmd.UserIssueID, cmd.UserID, url, h.clock())
	if err := h.writer.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("submit_for_review: failed to save review: %w", err)
	}

	h.logger.Info("issue submitted for review",
		logger.ReviewID(r.ID().String()),
		logger.UserID(cmd.UserID.String()),
	)
	return &SubmitForReviewResult{ReviewID: r.ID()}, nil
}
