// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/learnhub/learnhub/internal/domain/module"
	"github.com/learnhub/learnhub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET MODULE ISSUES QUERY
// Returns the issues of a module in display order.
// ══════════════════════════════════════════════════════════════════════════════

// GetModuleIssuesQuery contains the query parameters.
type GetModuleIssuesQuery struct {
	ModuleID shared.ModuleID

	// IncludeDeleted also returns soft-deleted issues, after the active ones.
	IncludeDeleted bool
}

// Validate checks the query parameters.
func (q GetModuleIssuesQuery) Validate() error {
	if q.ModuleID == (shared.ModuleID{}) {
		return errors.New("module_id is required")
	}
	return nil
}

// IssueDTO is the read model of a single issue.
type IssueDTO struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	LessonID    string     `json:"lesson_id,omitempty"`
	Experience  int        `json:"experience"`
	Position    int        `json:"position"`
	FileIDs     []string   `json:"file_ids,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// ModuleIssuesDTO is the query result.
type ModuleIssuesDTO struct {
	ModuleID    string     `json:"module_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deleted     bool       `json:"deleted"`
	ActiveCount int        `json:"active_count"`
	Issues      []IssueDTO `json:"issues"`
}

// GetModuleIssuesHandler handles the GetModuleIssuesQuery.
type GetModuleIssuesHandler struct {
	moduleRepo module.Repository
}

// NewGetModuleIssuesHandler creates a new GetModuleIssuesHandler.
func NewGetModuleIssuesHandler(moduleRepo module.Repository) *GetModuleIssuesHandler {
	return &GetModuleIssuesHandler{moduleRepo: moduleRepo}
}

// Handle executes the query.
func (h *GetModuleIssuesHandler) Handle(ctx context.Context, q GetModuleIssuesQuery) (*ModuleIssuesDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_module_issues: %w", err)
	}

	m, err := h.moduleRepo.GetByID(ctx, q.ModuleID)
	if err != nil {
		return nil, fmt.Errorf("get_module_issues: %w", err)
	}

	issues := m.ActiveIssues()
	if q.IncludeDeleted {
		issues = m.Issues()
	}

	dto := &ModuleIssuesDTO{
		ModuleID:    m.ID().String(),
		Title:       m.Title().String(),
		Description: m.Description().String(),
		Deleted:     m.IsDeleted(),
		ActiveCount: m.ActiveCount(),
		Issues:      make([]IssueDTO, 0, len(issues)),
	}
	for _, issue := range issues {
		dto.Issues = append(dto.Issues, toIssueDTO(issue))
	}
	return dto, nil
}

func toIssueDTO(issue *module.Issue) IssueDTO {
	d := IssueDTO{
		ID:          issue.ID().String(),
		Title:       issue.Title().String(),
		Description: issue.Description().String(),
		Experience:  issue.Experience().Int(),
		Position:    issue.Position().Int(),
		DeletedAt:   issue.DeletedAt(),
	}
	if !issue.LessonID().IsEmpty() {
		d.LessonID = issue.LessonID().String()
	}
	for _, f := range issue.FileIDs() {
		d.FileIDs = append(d.FileIDs, f.String())
	}
	return d
}
