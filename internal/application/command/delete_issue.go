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
// DELETE / SOFT DELETE / RESTORE ISSUE COMMANDS
// Unknown issue ids are accepted silently; the module stays unchanged.
// ══════════════════════════════════════════════════════════════════════════════

// IssueRef addresses one issue inside a module.
type IssueRef struct {
	ModuleID shared.ModuleID
	IssueID  shared.IssueID
}

// validate checks that both ids are set.
func (r IssueRef) validate(op string) error {
	if err := requireModuleID(op, r.ModuleID); err != nil {
		return err
	}
	return requireIssueID(op, r.IssueID)
}

// DeleteIssueCommand removes an issue permanently.
type DeleteIssueCommand IssueRef

// SoftDeleteIssueCommand marks an issue deleted; it can be restored until
// the retention period ends.
type SoftDeleteIssueCommand IssueRef

// RestoreIssueCommand brings a soft-deleted issue back at the end of the
// module.
type RestoreIssueCommand IssueRef

// IssueRemovalHandler handles delete, soft delete and restore of issues.
type IssueRemovalHandler struct {
	writer *ModuleWriter
	clock  Clock
	logger *slog.Logger
}

// NewIssueRemovalHandler creates a new IssueRemovalHandler.
func NewIssueRemovalHandler(writer *ModuleWriter, clock Clock, log *slog.Logger) *IssueRemovalHandler {
	return &IssueRemovalHandler{writer: writer, clock: clock, logger: log}
}

// HandleDelete executes the delete issue command.
func (h *IssueRemovalHandler) HandleDelete(ctx context.Context, cmd DeleteIssueCommand) error {
	ref := IssueRef(cmd)
	if err := ref.validate("delete_issue"); err != nil {
		return fmt.Errorf("delete_issue: validation failed: %w", err)
	}

	_, err := h.writer.Mutate(ctx, "delete_issue", ref.ModuleID, func(m *module.Module) error {
		return m.DeleteIssue(ref.IssueID)
	})
	if err != nil {
		return fmt.Errorf("delete_issue: %w", err)
	}

	h.logger.Info(fmt.Sprintf("issue %s was deleted in module %s", ref.IssueID, ref.ModuleID),
		logger.IssueID(ref.IssueID.String()),
		logger.ModuleID(ref.ModuleID.String()),
	)
	return nil
}

// HandleSoftDelete executes the soft delete issue command.
func (h *IssueRemovalHandler) HandleSoftDelete(ctx context.Context, cmd SoftDeleteIssueCommand) error {
	ref := IssueRef(cmd)
	if err := ref.validate("soft_delete_issue"); err != nil {
		return fmt.Errorf("soft_delete_issue: validation failed: %w", err)
	}

	now := h.clock()
	_, err := h.writer.Mutate(ctx, "soft_delete_issue", ref.ModuleID, func(m *module.Module) error {
		return m.SoftDeleteIssue(ref.IssueID, now)
	})
	if err != nil {
		return fmt.Errorf("soft_delete_issue: %w", err)
	}

	h.logger.Info(fmt.Sprintf("issue %s was soft deleted in module %s", ref.IssueID, ref.ModuleID),
		logger.IssueID(ref.IssueID.String()),
		logger.ModuleID(ref.ModuleID.String()),
	)
	return nil
}

// HandleRestore executes the restore issue command.
func (h *IssueRemovalHandler) HandleRestore(ctx context.Context, cmd RestoreIssueCommand) error {
	ref := IssueRef(cmd)
	if err := ref.validate("restore_issue"); err != nil {
		return fmt.Errorf("restore_issue: validation failed: %w", err)
	}

	_, err := h.writer.Mutate(ctx, "restore_issue", ref.ModuleID, func(m *module.Module) error {
		return m.RestoreIssue(ref.IssueID)
	})
	if err != nil {
		return fmt.Errorf("restore_issue: %w", err)
	}

	h.logger.Info(fmt.Sprintf("issue %s was restored in module %s", ref.IssueID, ref.ModuleID),
		logger.IssueID(ref.IssueID.String()),
		logger.ModuleID(ref.ModuleID.String()),
	)
	return nil
}
