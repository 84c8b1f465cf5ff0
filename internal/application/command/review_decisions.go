package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/learnhub/learnhub/internal/domain/review"
	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW COMMANDS
// StartReview, SendForRevision and ApproveReview drive the IssueReview
// state machine. Only the assigned reviewer may decide on a review.
// ══════════════════════════════════════════════════════════════════════════════

// ReviewDecisionCommand addresses a review on behalf of a reviewer.
type ReviewDecisionCommand struct {
	ReviewID   shared.ReviewID
	ReviewerID shared.UserID
}

func (c ReviewDecisionCommand) validate(op string) error {
	if err := requireReviewID(op, c.ReviewID); err != nil {
		return err
	}
	return requireUserID(op, c.ReviewerID)
}

// StartReviewCommand takes a review on.
type StartReviewCommand ReviewDecisionCommand

// SendForRevisionCommand asks the submitter for changes.
type SendForRevisionCommand ReviewDecisionCommand

// ApproveReviewCommand accepts the submission.
type ApproveReviewCommand ReviewDecisionCommand

// ReviewDecisionResult reports the review status after the command.
type ReviewDecisionResult struct {
	Status review.Status
}

// ReviewDecisionHandler handles the review state machine commands.
type ReviewDecisionHandler struct {
	writer *ReviewWriter
	clock  Clock
	logger *slog.Logger
}

// NewReviewDecisionHandler creates a new ReviewDecisionHandler.
func NewReviewDecisionHandler(writer *ReviewWriter, clock Clock, log *slog.Logger) *ReviewDecisionHandler {
	return &ReviewDecisionHandler{writer: writer, clock: clock, logger: log}
}

// HandleStart executes the start review command.
func (h *ReviewDecisionHandler) HandleStart(ctx context.Context, cmd StartReviewCommand) (*ReviewDecisionResult, error) {
	c := ReviewDecisionCommand(cmd)
	if err := c.validate("start_review"); err != nil {
		return nil, fmt.Errorf("start_review: validation failed: %w", err)
	}

	now := h.clock()
	r, err := h.writer.Mutate(ctx, "start", c.ReviewID, func(r *review.IssueReview) error {
		return r.StartReview(c.ReviewerID, now)
	})
	if err != nil {
		return nil, fmt.Errorf("start_review: %w", err)
	}

	h.logger.Info("review started", logger.ReviewID(c.ReviewID.String()), logger.UserID(c.ReviewerID.String()))
	return &ReviewDecisionResult{Status: r.Status()}, nil
}

// HandleSendForRevision executes the send for revision command.
func (h *ReviewDecisionHandler) HandleSendForRevision(ctx context.Context, cmd SendForRevisionCommand) (*ReviewDecisionResult, error) {
	c := ReviewDecisionCommand(cmd)
	if err := c.validate("send_for_revision"); err != nil {
		return nil, fmt.Errorf("send_for_revision: validation failed: %w", err)
	}

	r, err := h.writer.Mutate(ctx, "send_for_revision", c.ReviewID, func(r *review.IssueReview) error {
		if err := requireAssignedReviewer(r, c.ReviewerID); err != nil {
			return err
		}
		return r.SendIssueForRevision()
	})
	if err != nil {
		return nil, fmt.Errorf("send_for_revision: %w", err)
	}

	h.logger.Info("issue sent for revision", logger.ReviewID(c.ReviewID.String()))
	return &ReviewDecisionResult{Status: r.Status()}, nil
}

// HandleApprove executes the approve review command.
func (h *ReviewDecisionHandler) HandleApprove(ctx context.Context, cmd ApproveReviewCommand) (*ReviewDecisionResult, error) {
	c := ReviewDecisionCommand(cmd)
	if err := c.validate("approve_review"); err != nil {
		return nil, fmt.Errorf("approve_review: validation failed: %w", err)
	}

	now := h.clock()
	r, err := h.writer.Mutate(ctx, "approve", c.ReviewID, func(r *review.IssueReview) error {
		if err := requireAssignedReviewer(r, c.ReviewerID); err != nil {
			return err
		}
		return r.Approve(now)
	})
	if err != nil {
		return nil, fmt.Errorf("approve_review: %w", err)
	}

	h.logger.Info("review approved", logger.ReviewID(c.ReviewID.String()))
	return &ReviewDecisionResult{Status: r.Status()}, nil
}

func requireAssignedReviewer(r *review.IssueReview, reviewerID shared.UserID) error {
	assigned, ok := r.ReviewerID()
	if ok && assigned != reviewerID {
		return shared.Invalid("review", "Decide", "reviewerId")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ADD REVIEW COMMENT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// AddReviewCommentCommand posts a comment on a review.
type AddReviewCommentCommand struct {
	ReviewID shared.ReviewID
	AuthorID shared.UserID
	Message  string
}

// Validate validates the command.
func (c AddReviewCommentCommand) Validate() error {
	if err := requireReviewID("add_review_comment", c.ReviewID); err != nil {
		return err
	}
	return requireUserID("add_review_comment", c.AuthorID)
}

// AddReviewCommentHandler handles the AddReviewCommentCommand.
type AddReviewCommentHandler struct {
	writer *ReviewWriter
	clock  Clock
	logger *slog.Logger
}

// NewAddReviewCommentHandler creates a new AddReviewCommentHandler.
func NewAddReviewCommentHandler(writer *ReviewWriter, clock Clock, log *slog.Logger) *AddReviewCommentHandler {
	return &AddReviewCommentHandler{writer: writer, clock: clock, logger: log}
}

// Handle executes the add review comment command.
func (h *AddReviewCommentHandler) Handle(ctx context.Context, cmd AddReviewCommentCommand) (shared.CommentID, error) {
	if err := cmd.Validate(); err != nil {
		return shared.CommentID{}, fmt.Errorf("add_review_comment: validation failed: %w", err)
	}
	comment, err := review.NewComment(cmd.AuthorID, cmd.Message, h.clock())
	if err != nil {
		return shared.CommentID{}, fmt.Errorf("add_review_comment: validation failed: %w", err)
	}

	_, err = h.writer.Mutate(ctx, "add_comment", cmd.ReviewID, func(r *review.IssueReview) error {
		return r.AddComment(comment)
	})
	if err != nil {
		return shared.CommentID{}, fmt.Errorf("add_review_comment: %w", err)
	}

	h.logger.Info("review comment added",
		logger.ReviewID(cmd.ReviewID.String()),
		logger.UserID(cmd.AuthorID.String()),
	)
	return comment.ID, nil
}
