package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/learnhub/learnhub/internal/domain/module"
	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MOVE ISSUE COMMAND
// Reorders an issue inside its module. Positions beyond the last active
// issue are clamped to it.
// ══════════════════════════════════════════════════════════════════════════════

// MoveIssueCommand contains the data to move an issue.
type MoveIssueCommand struct {
	ModuleID    shared.ModuleID
	IssueID     shared.IssueID
	NewPosition int
}

// Validate validates the command.
func (c MoveIssueCommand) Validate() error {
	if err := requireModuleID("move_issue", c.ModuleID); err != nil {
		return err
	}
	if err := requireIssueID("move_issue", c.IssueID); err != nil {
		return err
	}
	_, err := shared.NewPosition(c.NewPosition)
	return err
}

// MoveIssueResult reports where the issue ended up.
type MoveIssueResult struct {
	Position shared.Position
}

// MoveIssueHandler handles the MoveIssueCommand.
type MoveIssueHandler struct {
	writer *ModuleWriter
	logger *slog.Logger
}

// NewMoveIssueHandler creates a new MoveIssueHandler.
func NewMoveIssueHandler(writer *ModuleWriter, log *slog.Logger) *MoveIssueHandler {
	return &MoveIssueHandler{writer: writer, logger: log}
}

// Handle executes the move issue command.
func (h *MoveIssueHandler) Handle(ctx context.Context, cmd MoveIssueCommand) (*MoveIssueResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("move_issue: validation failed: %w", err)
	}
	target := shared.MustPosition(cmd.NewPosition)

	m, err := h.writer.Mutate(ctx, "move_issue", cmd.ModuleID, func(m *module.Module) error {
		return m.MoveIssue(cmd.IssueID, target)
	})
	if err != nil {
		return nil, fmt.Errorf("move_issue: %w", err)
	}

	issue, err := m.GetIssueByID(cmd.IssueID)
	if err != nil {
		return nil, fmt.Errorf("move_issue: %w", err)
	}

	h.logger.Info("issue moved",
		logger.IssueID(cmd.IssueID.String()),
		logger.ModuleID(cmd.ModuleID.String()),
		"requested_position", cmd.NewPosition,
		"position", issue.Position().Int(),
	)
	return &MoveIssueResult{Position: issue.Position()}, nil
}
