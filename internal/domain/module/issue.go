package module

import (
	"errors"
	"time"

	"github.com/learnhub/learnhub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ISSUE INFO
// ══════════════════════════════════════════════════════════════════════════════

// IssueInfo groups the editable descriptive attributes of an issue.
type IssueInfo struct {
	Title       shared.Title
	Description shared.Description
	LessonID    shared.LessonID
	Experience  shared.Experience
}

// NewIssueInfo validates raw input and reports every failing field at once.
func NewIssueInfo(title, description, lessonID string, experience int) (IssueInfo, error) {
	var errs []error

	t, err := shared.NewTitle(title)
	if err != nil {
		errs = append(errs, err)
	}
	d, err := shared.NewDescription(description)
	if err != nil {
		errs = append(errs, err)
	}
	l, err := shared.ParseLessonID(lessonID)
	if err != nil {
		errs = append(errs, err)
	}
	x, err := shared.NewExperience(experience)
	if err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return IssueInfo{}, errors.Join(errs...)
	}
	return IssueInfo{Title: t, Description: d, LessonID: l, Experience: x}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ISSUE ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Issue is a single exercise inside a module. Its position is owned by the
// module and only changes through Module methods.
type Issue struct {
	id        shared.IssueID
	moduleID  shared.ModuleID
	info      IssueInfo
	position  shared.Position
	fileIDs   []shared.FileID
	deletedAt *time.Time
}

// NewIssue creates a detached issue. It receives its position when added
// to a module.
func NewIssue(info IssueInfo, fileIDs []shared.FileID) *Issue {
	return &Issue{
		id:      shared.NewIssueID(),
		info:    info,
		fileIDs: append([]shared.FileID(nil), fileIDs...),
	}
}

func (i *Issue) ID() shared.IssueID              { return i.id }
func (i *Issue) ModuleID() shared.ModuleID       { return i.moduleID }
func (i *Issue) Info() IssueInfo                 { return i.info }
func (i *Issue) Title() shared.Title             { return i.info.Title }
func (i *Issue) Description() shared.Description { return i.info.Description }
func (i *Issue) LessonID() shared.LessonID       { return i.info.LessonID }
func (i *Issue) Experience() shared.Experience   { return i.info.Experience }
func (i *Issue) Position() shared.Position       { return i.position }

// FileIDs returns a copy of the attached file references.
func (i *Issue) FileIDs() []shared.FileID {
	return append([]shared.FileID(nil), i.fileIDs...)
}

// DeletedAt returns the soft-deletion time, or nil for an active issue.
func (i *Issue) DeletedAt() *time.Time {
	if i.deletedAt == nil {
		return nil
	}
	t := *i.deletedAt
	return &t
}

// IsDeleted reports whether the issue is soft deleted.
func (i *Issue) IsDeleted() bool {
	return i.deletedAt != nil
}

// ExpiredAt reports whether a soft-deleted issue has outlived its retention.
func (i *Issue) ExpiredAt(now time.Time) bool {
	return i.deletedAt != nil && !now.Before(i.deletedAt.Add(LifetimeAfterDeletion))
}

func (i *Issue) updateInfo(info IssueInfo) {
	i.info = info
}

func (i *Issue) updateFiles(fileIDs []shared.FileID) {
	i.fileIDs = append([]shared.FileID(nil), fileIDs...)
}

func (i *Issue) softDelete(now time.Time) {
	t := now
	i.deletedAt = &t
}

func (i *Issue) restore() {
	i.deletedAt = nil
}

func (i *Issue) deletedWith(at *time.Time) bool {
	return i.deletedAt != nil && at != nil && i.deletedAt.Equal(*at)
}
