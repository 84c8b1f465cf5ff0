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
// ADD ISSUE COMMAND
// Appends a new issue to the end of a module.
// ══════════════════════════════════════════════════════════════════════════════

// AddIssueCommand contains the data to add an issue.
type AddIssueCommand struct {
	ModuleID    shared.ModuleID
	Title       string
	Description string
	// LessonID is optional; empty means the issue is not tied to a lesson.
	LessonID   string
	Experience int
	FileIDs    []shared.FileID
}

// Validate validates the command.
func (c AddIssueCommand) Validate() error {
	return requireModuleID("add_issue", c.ModuleID)
}

// AddIssueResult contains the result of adding an issue.
type AddIssueResult struct {
	IssueID  shared.IssueID
	Position shared.Position
}

// AddIssueHandler handles the AddIssueCommand.
type AddIssueHandler struct {
	writer *ModuleWriter
	logger *slog.Logger
}

// NewAddIssueHandler creates a new AddIssueHandler.
func NewAddIssueHandler(writer *ModuleWriter, log *slog.Logger) *AddIssueHandler {
	return &AddIssueHandler{writer: writer, logger: log}
}

// Handle executes the add issue command.
func (h *AddIssueHandler) Handle(ctx context.Context, cmd AddIssueCommand) (*AddIssueResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("add_issue: validation failed: %w", err)
	}
	info, err := module.NewIssueInfo(cmd.Title, cmd.Description, cmd.LessonID, cmd.Experience)
	if err != nil {
		return nil, fmt.Errorf("add_issue: validation failed: %w", err)
	}

	var issue *module.Issue
	_, err = h.writer.Mutate(ctx, "add_issue", cmd.ModuleID, func(m *module.Module) error {
		issue = module.NewIssue(info, cmd.FileIDs)
		return m.AddIssue(issue)
	})
	if err != nil {
		return nil, fmt.Errorf("add_issue: %w", err)
	}

	h.logger.Info("issue added to module",
		logger.IssueID(issue.ID().String()),
		logger.ModuleID(cmd.ModuleID.String()),
		"position", issue.Position().Int(),
	)
	return &AddIssueResult{IssueID: issue.ID(), Position: issue.Position()}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE ISSUE INFO COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// UpdateIssueInfoCommand changes the descriptive attributes of an issue.
// FileIDs, when non-nil, replaces the attached files.
type UpdateIssueInfoCommand struct {
	ModuleID    shared.ModuleID
	IssueID     shared.IssueID
	Title       string
	Description string
	LessonID    string
	Experience  int
	FileIDs     []shared.FileID
}

// Validate validates the command.
func (c UpdateIssueInfoCommand) Validate() error {
	if err := requireModuleID("update_issue_info", c.ModuleID); err != nil {
		return err
	}
	return requireIssueID("update_issue_info", c.IssueID)
}

// UpdateIssueInfoHandler handles the UpdateIssueInfoCommand.
type UpdateIssueInfoHandler struct {
	writer *ModuleWriter
	logger *slog.Logger
}

// NewUpdateIssueInfoHandler creates a new UpdateIssueInfoHandler.
func NewUpdateIssueInfoHandler(writer *ModuleWriter, log *slog.Logger) *UpdateIssueInfoHandler {
	return &UpdateIssueInfoHandler{writer: writer, logger: log}
}

// Handle executes the update issue info command.
func (h *UpdateIssueInfoHandler) Handle(ctx context.Context, cmd UpdateIssueInfoCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("update_issue_info: validation failed: %w", err)
	}
	info, err := module.NewIssueInfo(cmd.Title, cmd.Description, cmd.LessonID, cmd.Experience)
	if err != nil {
		return fmt.Errorf("update_issue_info: validation failed: %w", err)
	}

	_, err = h.writer.Mutate(ctx, "update_issue_info", cmd.ModuleID, func(m *module.Module) error {
		if err := m.UpdateIssueInfo(cmd.IssueID, info); err != nil {
			return err
		}
		if cmd.FileIDs != nil {
			return m.UpdateIssueFiles(cmd.IssueID, cmd.FileIDs)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update_issue_info: %w", err)
	}

	h.logger.Info("issue info updated",
		logger.IssueID(cmd.IssueID.String()),
		logger.ModuleID(cmd.ModuleID.String()),
	)
	return nil
}
