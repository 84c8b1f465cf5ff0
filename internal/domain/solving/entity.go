// Package solving tracks a user's progress through the issues of a module.
package solving

import (
	"fmt"
	"time"

	"github.com/learnhub/learnhub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ISSUE STATUS
// ══════════════════════════════════════════════════════════════════════════════

// IssueStatus is the solving state of a UserIssue.
type IssueStatus string

const (
	StatusAtWork      IssueStatus = "AtWork"
	StatusUnderReview IssueStatus = "UnderReview"
	StatusRejected    IssueStatus = "Rejected"
	StatusCompleted   IssueStatus = "Completed"
)

// IsValid checks that the status is one of the known values.
func (s IssueStatus) IsValid() bool {
	switch s {
	case StatusAtWork, StatusUnderReview, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

func (s IssueStatus) String() string { return string(s) }

// ParseIssueStatus decodes a stored status. Unknown text means the store is
// inconsistent and is reported as shared.ErrDataIntegrity.
func ParseIssueStatus(s string) (IssueStatus, error) {
	st := IssueStatus(s)
	if !st.IsValid() {
		return "", shared.NewDomainError("solving", "ParseIssueStatus", shared.ErrDataIntegrity,
			fmt.Sprintf("unknown issue status %q", s))
	}
	return st, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// USER ISSUE
// ══════════════════════════════════════════════════════════════════════════════

// UserIssue is a user's solving record for one issue.
type UserIssue struct {
	ID        shared.UserIssueID
	UserID    shared.UserID
	IssueID   shared.IssueID
	Status    IssueStatus
	StartDate time.Time
	EndDate   *time.Time
}

// NewUserIssue starts work on an issue.
func NewUserIssue(userID shared.UserID, issueID shared.IssueID, now time.Time) *UserIssue {
	return &UserIssue{
		ID:        shared.NewUserIssueID(),
		UserID:    userID,
		IssueID:   issueID,
		Status:    StatusAtWork,
		StartDate: now,
	}
}

// SubmitForReview marks the work as handed in. Allowed from AtWork or
// after a rejection.
func (u *UserIssue) SubmitForReview() error {
	if u.Status != StatusAtWork && u.Status != StatusRejected {
		return shared.Invalid("solving", "SubmitForReview", "user-issue-status")
	}
	u.Status = StatusUnderReview
	return nil
}

// Reject sends the work back to the user.
func (u *UserIssue) Reject() error {
	if u.Status != StatusUnderReview {
		return shared.Invalid("solving", "Reject", "user-issue-status")
	}
	u.Status = StatusRejected
	return nil
}

// Complete closes the record after an accepted review.
func (u *UserIssue) Complete(now time.Time) error {
	if u.Status != StatusUnderReview {
		return shared.Invalid("solving", "Complete", "user-issue-status")
	}
	t := now
	u.EndDate = &t
	u.Status = StatusCompleted
	return nil
}
