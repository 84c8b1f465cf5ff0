package module

import (
	"time"

	"github.com/learnhub/learnhub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PERSISTENCE STATE
// Flat representations used by repositories to load and store the aggregate
// without reaching into its invariants.
// ══════════════════════════════════════════════════════════════════════════════

// IssueState is the stored form of an Issue.
type IssueState struct {
	ID        shared.IssueID
	ModuleID  shared.ModuleID
	Info      IssueInfo
	Position  shared.Position
	FileIDs   []shared.FileID
	DeletedAt *time.Time
}

// State is the stored form of a Module.
type State struct {
	ID          shared.ModuleID
	Title       shared.Title
	Description shared.Description
	Issues      []IssueState
	DeletedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int
}

// Snapshot returns the current state of the aggregate.
func (m *Module) Snapshot() State {
	s := State{
		ID:          m.id,
		Title:       m.title,
		Description: m.description,
		DeletedAt:   m.DeletedAt(),
		CreatedAt:   m.createdAt,
		UpdatedAt:   m.updatedAt,
		Version:     m.version,
		Issues:      make([]IssueState, 0, len(m.issues)),
	}
	for _, issue := range m.Issues() {
		s.Issues = append(s.Issues, IssueState{
			ID:        issue.id,
			ModuleID:  m.id,
			Info:      issue.info,
			Position:  issue.position,
			FileIDs:   issue.FileIDs(),
			DeletedAt: issue.DeletedAt(),
		})
	}
	return s
}

// Reconstitute rebuilds a Module from stored state. No events are recorded.
func Reconstitute(s State) *Module {
	m := &Module{
		id:          s.ID,
		title:       s.Title,
		description: s.Description,
		deletedAt:   s.DeletedAt,
		createdAt:   s.CreatedAt,
		updatedAt:   s.UpdatedAt,
		version:     s.Version,
		issues:      make([]*Issue, 0, len(s.Issues)),
	}
	for _, is := range s.Issues {
		m.issues = append(m.issues, &Issue{
			id:        is.ID,
			moduleID:  s.ID,
			info:      is.Info,
			position:  is.Position,
			fileIDs:   append([]shared.FileID(nil), is.FileIDs...),
			deletedAt: is.DeletedAt,
		})
	}
	return m
}
