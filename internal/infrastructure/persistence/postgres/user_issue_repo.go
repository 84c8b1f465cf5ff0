package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/internal/domain/solving"
)

// UserIssueRepository implements solving.Repository and
// solving.StatusReader using PostgreSQL.
type UserIssueRepository struct {
	conn *Connection
}

// NewUserIssueRepository creates a new UserIssueRepository.
func NewUserIssueRepository(conn *Connection) *UserIssueRepository {
	return &UserIssueRepository{conn: conn}
}

// Add stores a new solving record.
func (r *UserIssueRepository) Add(ctx context.Context, u *solving.UserIssue) error {
	const query = `
		INSERT INTO user_issues (id, user_id, issue_id, status, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.conn.Exec(ctx, query,
		uuid.UUID(u.ID), uuid.UUID(u.UserID), uuid.UUID(u.IssueID), u.Status.String(), u.StartDate, u.EndDate,
	)
	if IsUniqueViolation(err) {
		return shared.ErrUserIssueExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert user issue: %w", err)
	}
	return nil
}

// GetByID returns a solving record.
func (r *UserIssueRepository) GetByID(ctx context.Context, id shared.UserIssueID) (*solving.UserIssue, error) {
	const query = `
		SELECT id, user_id, issue_id, status, start_date, end_date
		FROM user_issues
		WHERE id = $1
	`

	var (
		rowID, userID, issueID uuid.UUID
		status                 string
		u                      solving.UserIssue
	)
	err := r.conn.QueryRow(ctx, query, uuid.UUID(id)).Scan(&rowID, &userID, &issueID, &status, &u.StartDate, &u.EndDate)
	if IsNoRows(err) {
		return nil, shared.ErrUserIssueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user issue: %w", err)
	}

	u.Status, err = solving.ParseIssueStatus(status)
	if err != nil {
		return nil, err
	}
	u.ID = shared.UserIssueID(rowID)
	u.UserID = shared.UserID(userID)
	u.IssueID = shared.IssueID(issueID)
	return &u, nil
}

// Save writes the status and end date of a solving record.
func (r *UserIssueRepository) Save(ctx context.Context, u *solving.UserIssue) error {
	const query = `UPDATE user_issues SET status = $2, end_date = $3 WHERE id = $1`

	tag, err := r.conn.Exec(ctx, query, uuid.UUID(u.ID), u.Status.String(), u.EndDate)
	if err != nil {
		return fmt.Errorf("failed to update user issue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrUserIssueNotFound
	}
	return nil
}

// GetByUserAndIssue returns the raw stored status; callers parse it.
func (r *UserIssueRepository) GetByUserAndIssue(ctx context.Context, userID shared.UserID, issueID shared.IssueID) (solving.SolvingRecord, error) {
	const query = `SELECT id, status FROM user_issues WHERE user_id = $1 AND issue_id = $2`

	var (
		id     uuid.UUID
		record solving.SolvingRecord
	)
	err := r.conn.QueryRow(ctx, query, uuid.UUID(userID), uuid.UUID(issueID)).Scan(&id, &record.Status)
	if IsNoRows(err) {
		return solving.SolvingRecord{}, shared.ErrUserIssueNotFound
	}
	if err != nil {
		return solving.SolvingRecord{}, fmt.Errorf("failed to get solving status: %w", err)
	}
	record.UserIssueID = shared.UserIssueID(id)
	return record, nil
}

