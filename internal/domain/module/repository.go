package module

import (
	"context"
	"time"

	"github.com/learnhub/learnhub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository persists Module aggregates together with their issues.
type Repository interface {
	// GetByID loads a module with all its issues.
	// Returns shared.ErrModuleNotFound if it does not exist.
	GetByID(ctx context.Context, id shared.ModuleID) (*Module, error)

	// Add stores a new module.
	Add(ctx context.Context, m *Module) error

	// Save writes the module and its issues in one transaction. It fails
	// with shared.ErrModuleConflict if the stored version differs from
	// m.Version().
	Save(ctx context.Context, m *Module) error

	// ListIDsWithExpiredIssues returns modules holding issues soft deleted
	// at or before cutoff.
	ListIDsWithExpiredIssues(ctx context.Context, cutoff time.Time) ([]shared.ModuleID, error)
}
