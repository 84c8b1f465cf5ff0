package solving

import (
	"context"

	"github.com/learnhub/learnhub/internal/domain/shared"
)

// CatalogIssue is the read-only view of an issue needed to sequence work.
type CatalogIssue struct {
	ID       shared.IssueID  `json:"id"`
	ModuleID shared.ModuleID `json:"module_id"`
	Position shared.Position `json:"position"`
	Title    shared.Title    `json:"title"`
}

// IssueCatalog resolves active issues.
type IssueCatalog interface {
	// GetIssueByID returns shared.ErrIssueNotFound for unknown or deleted issues.
	GetIssueByID(ctx context.Context, id shared.IssueID) (CatalogIssue, error)

	// GetIssueByPosition returns the active issue at position within a module.
	GetIssueByPosition(ctx context.Context, moduleID shared.ModuleID, position shared.Position) (CatalogIssue, error)
}

// SolvingRecord is a user's stored status for an issue, status still raw.
type SolvingRecord struct {
	UserIssueID shared.UserIssueID
	Status      string
}

// StatusReader looks up solving records.
type StatusReader interface {
	// GetByUserAndIssue returns shared.ErrUserIssueNotFound when the user
	// never took the issue.
	GetByUserAndIssue(ctx context.Context, userID shared.UserID, issueID shared.IssueID) (SolvingRecord, error)
}

// Repository persists UserIssue records.
type Repository interface {
	// Add returns shared.ErrUserIssueExists if the user already took the issue.
	Add(ctx context.Context, u *UserIssue) error
	GetByID(ctx context.Context, id shared.UserIssueID) (*UserIssue, error)
	Save(ctx context.Context, u *UserIssue) error
}
