package review

import (
	"context"
	"time"

	"github.com/learnhub/learnhub/internal/domain/shared"
)

// Repository persists IssueReview aggregates.
type Repository interface {
	// GetByID returns shared.ErrReviewNotFound if the review does not exist.
	GetByID(ctx context.Context, id shared.ReviewID) (*IssueReview, error)

	// GetByUserIssueID returns the review for a solving record.
	GetByUserIssueID(ctx context.Context, id shared.UserIssueID) (*IssueReview, error)

	// Add stores a new review. Returns shared.ErrReviewExists when the
	// user issue already has one.
	Add(ctx context.Context, r *IssueReview) error

	// Save writes the review and its comments, checking r.Version().
	// Returns shared.ErrReviewConflict on a stale version.
	Save(ctx context.Context, r *IssueReview) error
}

// State is the stored form of an IssueReview.
type State struct {
	ID                shared.ReviewID
	UserIssueID       shared.UserIssueID
	UserID            shared.UserID
	ReviewerID        *shared.UserID
	PullRequestURL    shared.PullRequestURL
	Status            Status
	IssueTakenTime    *time.Time
	IssueApprovedTime *time.Time
	Comments          []Comment
	CreatedAt         time.Time
	Version           int
}

// Snapshot returns the current state of the review.
func (r *IssueReview) Snapshot() State {
	var reviewer *shared.UserID
	if r.reviewerID != nil {
		id := *r.reviewerID
		reviewer = &id
	}
	return State{
		ID:                r.id,
		UserIssueID:       r.userIssueID,
		UserID:            r.userID,
		ReviewerID:        reviewer,
		PullRequestURL:    r.pullRequestURL,
		Status:            r.status,
		IssueTakenTime:    r.IssueTakenTime(),
		IssueApprovedTime: r.IssueApprovedTime(),
		Comments:          r.Comments(),
		CreatedAt:         r.createdAt,
		Version:           r.version,
	}
}

// Reconstitute rebuilds a review from stored state.
func Reconstitute(s State) *IssueReview {
	return &IssueReview{
		id:                s.ID,
		userIssueID:       s.UserIssueID,
		userID:            s.UserID,
		reviewerID:        s.ReviewerID,
		pullRequestURL:    s.PullRequestURL,
		status:            s.Status,
		issueTakenTime:    s.IssueTakenTime,
		issueApprovedTime: s.IssueApprovedTime,
		comments:          append([]Comment(nil), s.Comments...),
		createdAt:         s.CreatedAt,
		version:           s.Version,
	}
}
