// Package review models peer review of a submitted pull request.
package review

import (
	"fmt"
	"time"

	"github.com/learnhub/learnhub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status is the state of an IssueReview.
type Status string

const (
	StatusWaitingForReviewer Status = "WaitingForReviewer"
	StatusOnReview           Status = "OnReview"
	StatusAskedForRevision   Status = "AskedForRevision"
	StatusAccepted           Status = "Accepted"
)

// IsValid checks that the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusWaitingForReviewer, StatusOnReview, StatusAskedForRevision, StatusAccepted:
		return true
	}
	return false
}

// String returns the string representation.
func (s Status) String() string {
	return string(s)
}

// ParseStatus decodes a stored status. Unknown text is a data fault.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", shared.NewDomainError("review", "ParseStatus", shared.ErrDataIntegrity,
			fmt.Sprintf("unknown review status %q", s))
	}
	return st, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMENT
// ══════════════════════════════════════════════════════════════════════════════

// Comment is a message left on a review by its submitter or reviewer.
type Comment struct {
	ID        shared.CommentID
	AuthorID  shared.UserID
	Message   shared.Message
	CreatedAt time.Time
}

// NewComment validates the message and builds a comment.
func NewComment(authorID shared.UserID, message string, now time.Time) (Comment, error) {
	msg, err := shared.NewMessage(message)
	if err != nil {
		return Comment{}, err
	}
	return Comment{
		ID:        shared.NewCommentID(),
		AuthorID:  authorID,
		Message:   msg,
		CreatedAt: now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ISSUE REVIEW
// ══════════════════════════════════════════════════════════════════════════════

// IssueReview tracks one pull-request submission for a UserIssue.
//
//	WaitingForReviewer ──StartReview──▶ OnReview ──Approve──▶ Accepted
//	                                      │  ▲
//	                  SendIssueForRevision│  │StartReview
//	                                      ▼  │
//	                                 AskedForRevision
type IssueReview struct {
	id                shared.ReviewID
	userIssueID       shared.UserIssueID
	userID            shared.UserID
	reviewerID        *shared.UserID
	pullRequestURL    shared.PullRequestURL
	status            Status
	issueTakenTime    *time.Time
	issueApprovedTime *time.Time
	comments          []Comment
	createdAt         time.Time
	version           int

	events []shared.Event
}

// NewIssueReview opens a review waiting for a reviewer.
func NewIssueReview(userIssueID shared.UserIssueID, userID shared.UserID, url shared.PullRequestURL, now time.Time) *IssueReview {
	r := &IssueReview{
		id:             shared.NewReviewID(),
		userIssueID:    userIssueID,
		userID:         userID,
		pullRequestURL: url,
		status:         StatusWaitingForReviewer,
		createdAt:      now,
	}
	r.record(shared.EventReviewSubmitted, userID)
	return r
}

func (r *IssueReview) ID() shared.ReviewID                   { return r.id }
func (r *IssueReview) UserIssueID() shared.UserIssueID       { return r.userIssueID }
func (r *IssueReview) UserID() shared.UserID                 { return r.userID }
func (r *IssueReview) PullRequestURL() shared.PullRequestURL { return r.pullRequestURL }
func (r *IssueReview) Status() Status                        { return r.status }
func (r *IssueReview) CreatedAt() time.Time                  { return r.createdAt }
func (r *IssueReview) Version() int                          { return r.version }

// SetVersion is called by repositories after a successful write.
func (r *IssueReview) SetVersion(v int) { r.version = v }

// ReviewerID returns the assigned reviewer, if any.
func (r *IssueReview) ReviewerID() (shared.UserID, bool) {
	if r.reviewerID == nil {
		return shared.UserID{}, false
	}
	return *r.reviewerID, true
}

// IssueTakenTime is when a reviewer first picked up the review.
func (r *IssueReview) IssueTakenTime() *time.Time { return copyTime(r.issueTakenTime) }

// IssueApprovedTime is when the review was accepted.
func (r *IssueReview) IssueApprovedTime() *time.Time { return copyTime(r.issueApprovedTime) }

// Comments returns the comments in posting order.
func (r *IssueReview) Comments() []Comment {
	return append([]Comment(nil), r.comments...)
}

// PullEvents returns and clears the events recorded since the last call.
func (r *IssueReview) PullEvents() []shared.Event {
	events := r.events
	r.events = nil
	return events
}

// StartReview moves the review to OnReview. The first reviewer is
// remembered; later calls must come from the same reviewer.
func (r *IssueReview) StartReview(reviewerID shared.UserID, now time.Time) error {
	if r.status != StatusWaitingForReviewer && r.status != StatusAskedForRevision {
		return shared.ErrReviewStatus
	}
	if r.reviewerID != nil && *r.reviewerID != reviewerID {
		return shared.ErrReviewerAlreadyGiven
	}

	if r.reviewerID == nil {
		id := reviewerID
		r.reviewerID = &id
	}
	if r.issueTakenTime == nil {
		t := now
		r.issueTakenTime = &t
	}
	r.status = StatusOnReview
	r.record(shared.EventReviewStarted, reviewerID)
	return nil
}

// SendIssueForRevision asks the submitter to rework the pull request.
func (r *IssueReview) SendIssueForRevision() error {
	if r.status != StatusOnReview {
		return shared.ErrReviewStatus
	}
	r.status = StatusAskedForRevision
	r.record(shared.EventRevisionRequested, *r.reviewerID)
	return nil
}

// Approve accepts the submission. Accepted is final.
func (r *IssueReview) Approve(now time.Time) error {
	if r.status != StatusOnReview {
		return shared.ErrReviewStatus
	}
	t := now
	r.issueApprovedTime = &t
	r.status = StatusAccepted
	r.record(shared.EventReviewApproved, *r.reviewerID)
	return nil
}

// AddComment appends a comment written by the submitter or the assigned
// reviewer. Comments are accepted in every status.
func (r *IssueReview) AddComment(c Comment) error {
	if !r.canComment(c.AuthorID) {
		return shared.ErrCommentAuthor
	}
	r.comments = append(r.comments, c)
	r.events = append(r.events, shared.NewReviewCommentAddedEvent(r.id, c.ID, c.AuthorID))
	return nil
}

func (r *IssueReview) canComment(authorID shared.UserID) bool {
	if authorID == r.userID {
		return true
	}
	return r.reviewerID != nil && *r.reviewerID == authorID
}

func (r *IssueReview) record(eventType shared.EventType, actor shared.UserID) {
	r.events = append(r.events, shared.NewReviewStatusChangedEvent(eventType, r.id, r.userIssueID, actor, r.status.String()))
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
