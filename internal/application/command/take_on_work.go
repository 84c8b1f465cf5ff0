package command

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/internal/domain/solving"
	"github.com/learnhub/learnhub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// TAKE ON WORK COMMAND
// A user may start an issue only after completing the one right before it
// in the same module. The first issue of a module is always open.
// ══════════════════════════════════════════════════════════════════════════════

// EventUserIssueCreated is the span event added once the record is stored.
const EventUserIssueCreated = "user_issue.created"

// TakeOnWorkCommand contains the data to start working on an issue.
type TakeOnWorkCommand struct {
	UserID  shared.UserID
	IssueID shared.IssueID
}

// Validate validates the command.
func (c TakeOnWorkCommand) Validate() error {
	if err := requireUserID("take_on_work", c.UserID); err != nil {
		return err
	}
	return requireIssueID("take_on_work", c.IssueID)
}

// TakeOnWorkResult contains the created solving record.
type TakeOnWorkResult struct {
	UserIssueID shared.UserIssueID
}

// TakeOnWorkHandler handles the TakeOnWorkCommand.
type TakeOnWorkHandler struct {
	catalog        solving.IssueCatalog
	statusReader   solving.StatusReader
	userIssueRepo  solving.Repository
	eventPublisher shared.EventPublisher
	tracer         trace.Tracer
	clock          Clock
	logger         *slog.Logger
}

// NewTakeOnWorkHandler creates a new TakeOnWorkHandler.
func NewTakeOnWorkHandler(
	catalog solving.IssueCatalog,
	statusReader solving.StatusReader,
	userIssueRepo solving.Repository,
	eventPublisher shared.EventPublisher,
	tracer trace.Tracer,
	clock Clock,
	log *slog.Logger,
) *TakeOnWorkHandler {
	return &TakeOnWorkHandler{
		catalog:        catalog,
		statusReader:   statusReader,
		userIssueRepo:  userIssueRepo,
		eventPublisher: eventPublisher,
		tracer:         tracer,
		clock:          clock,
		logger:         log,
	}
}

// Handle executes the take on work command.
func (h *TakeOnWorkHandler) Handle(ctx context.Context, cmd TakeOnWorkCommand) (_ *TakeOnWorkResult, err error) {
	ctx, span := h.tracer.Start(ctx, "solving.take_on_work", trace.WithAttributes(
		attribute.String("user.id", cmd.UserID.String()),
		attribute.String("issue.id", cmd.IssueID.String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("take_on_work: validation failed: %w", err)
	}

	issue, err := h.catalog.GetIssueByID(ctx, cmd.IssueID)
	if err != nil {
		return nil, fmt.Errorf("take_on_work: failed to resolve issue: %w", err)
	}

	if issue.Position.Int() > 1 {
		if err := h.checkPreviousSolved(ctx, cmd.UserID, issue); err != nil {
			return nil, fmt.Errorf("take_on_work: %w", err)
		}
	}

	userIssue := solving.NewUserIssue(cmd.UserID, cmd.IssueID, h.clock())
	if err := h.userIssueRepo.Add(ctx, userIssue); err != nil {
		return nil, fmt.Errorf("take_on_work: failed to save user issue: %w", err)
	}

	span.AddEvent(EventUserIssueCreated, trace.WithAttributes(
		attribute.String("user_issue.id", userIssue.ID.String()),
	))
	h.logger.Info(fmt.Sprintf("user issue %s was created", userIssue.ID),
		logger.UserID(cmd.UserID.String()),
		logger.IssueID(cmd.IssueID.String()),
	)

	if h.eventPublisher != nil {
		event := shared.NewIssueTakenOnWorkEvent(userIssue.ID, cmd.UserID, cmd.IssueID)
		if err := h.eventPublisher.Publish(event); err != nil {
			h.logger.Warn("failed to publish event", "event_type", event.EventType(), logger.Err(err))
		}
	}

	return &TakeOnWorkResult{UserIssueID: userIssue.ID}, nil
}

func (h *TakeOnWorkHandler) checkPreviousSolved(ctx context.Context, userID shared.UserID, issue solving.CatalogIssue) error {
	prevPos, err := issue.Position.Back()
	if err != nil {
		return err
	}

	previous, err := h.catalog.GetIssueByPosition(ctx, issue.ModuleID, prevPos)
	if err != nil {
		return fmt.Errorf("failed to resolve previous issue: %w", err)
	}

	record, err := h.statusReader.GetByUserAndIssue(ctx, userID, previous.ID)
	if err != nil {
		if shared.IsNotFound(err) {
			return shared.ErrPreviousSolvedNotFound
		}
		return fmt.Errorf("failed to read previous solving status: %w", err)
	}

	status, err := solving.ParseIssueStatus(record.Status)
	if err != nil {
		return err
	}
	if status != solving.StatusCompleted {
		return shared.ErrPreviousIssueNotSolved
	}
	return nil
}
