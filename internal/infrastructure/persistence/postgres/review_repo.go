package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/learnhub/learnhub/internal/domain/review"
	"github.com/learnhub/learnhub/internal/domain/shared"
)

// ReviewRepository implements review.Repository using PostgreSQL.
type ReviewRepository struct {
	conn *Connection
}

// NewReviewRepository creates a new ReviewRepository.
func NewReviewRepository(conn *Connection) *ReviewRepository {
	return &ReviewRepository{conn: conn}
}

const reviewColumns = `
	id, user_issue_id, user_id, reviewer_id, pull_request_url, status,
	issue_taken_time, issue_approved_time, created_at, version
`

// GetByID loads a review with its comments.
func (r *ReviewRepository) GetByID(ctx context.Context, id shared.ReviewID) (*review.IssueReview, error) {
	return r.getBy(ctx, "id", uuid.UUID(id))
}

// GetByUserIssueID loads the review opened for a solving record.
func (r *ReviewRepository) GetByUserIssueID(ctx context.Context, id shared.UserIssueID) (*review.IssueReview, error) {
	return r.getBy(ctx, "user_issue_id", uuid.UUID(id))
}

func (r *ReviewRepository) getBy(ctx context.Context, column string, value uuid.UUID) (*review.IssueReview, error) {
	var state review.State
	err := r.conn.WithTx(ctx, ReadOnlyTxOptions(), func(tx pgx.Tx) error {
		query := fmt.Sprintf("SELECT %s FROM issue_reviews WHERE %s = $1", reviewColumns, column)
		s, err := scanReview(tx.QueryRow(ctx, query, value))
		if err != nil {
			return err
		}
		s.Comments, err = loadComments(ctx, tx, s.ID)
		state = s
		return err
	})
	if err != nil {
		return nil, err
	}
	return review.Reconstitute(state), nil
}

func scanReview(row pgx.Row) (review.State, error) {
	var (
		id, userIssueID, userID uuid.UUID
		reviewerID              uuid.NullUUID
		url, status             string
		s                       review.State
	)
	err := row.Scan(
		&id,
		&userIssueID,
		&userID,
		&reviewerID,
		&url,
		&status,
		&s.IssueTakenTime,
		&s.IssueApprovedTime,
		&s.CreatedAt,
		&s.Version,
	)
	if IsNoRows(err) {
		return review.State{}, shared.ErrReviewNotFound
	}
	if err != nil {
		return review.State{}, fmt.Errorf("failed to scan review: %w", err)
	}

	s.Status, err = review.ParseStatus(status)
	if err != nil {
		return review.State{}, err
	}
	s.ID = shared.ReviewID(id)
	s.UserIssueID = shared.UserIssueID(userIssueID)
	s.UserID = shared.UserID(userID)
	s.PullRequestURL = shared.PullRequestURL(url)
	if reviewerID.Valid {
		rid := shared.UserID(reviewerID.UUID)
		s.ReviewerID = &rid
	}
	return s, nil
}

func loadComments(ctx context.Context, q Querier, reviewID shared.ReviewID) ([]review.Comment, error) {
	const query = `
		SELECT id, author_id, message, created_at
		FROM review_comments
		WHERE review_id = $1
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, query, uuid.UUID(reviewID))
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []review.Comment
	for rows.Next() {
		var (
			id, authorID uuid.UUID
			message      string
			createdAt    time.Time
		)
		if err := rows.Scan(&id, &authorID, &message, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, review.Comment{
			ID:        shared.CommentID(id),
			AuthorID:  shared.UserID(authorID),
			Message:   shared.Message(message),
			CreatedAt: createdAt,
		})
	}
	return comments, rows.Err()
}

// Add stores a new review at version 1.
func (r *ReviewRepository) Add(ctx context.Context, rv *review.IssueReview) error {
	s := rv.Snapshot()

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		query := fmt.Sprintf(`
			INSERT INTO issue_reviews (%s)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)
		`, reviewColumns)
		_, err := tx.Exec(ctx, query,
			uuid.UUID(s.ID), uuid.UUID(s.UserIssueID), uuid.UUID(s.UserID), nullableUser(s.ReviewerID),
			s.PullRequestURL.String(), string(s.Status), s.IssueTakenTime, s.IssueApprovedTime, s.CreatedAt,
		)
		if IsUniqueViolation(err) {
			return shared.ErrReviewExists
		}
		if err != nil {
			return fmt.Errorf("failed to insert review: %w", err)
		}
		return insertNewComments(ctx, tx, s)
	})
	if err != nil {
		return err
	}

	rv.SetVersion(1)
	return nil
}

// Save writes status, reviewer and timestamps if the stored version still
// matches. Comments are append-only, so only unseen ones are inserted.
func (r *ReviewRepository) Save(ctx context.Context, rv *review.IssueReview) error {
	s := rv.Snapshot()

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		const query = `
			UPDATE issue_reviews
			SET reviewer_id = $3, status = $4, issue_taken_time = $5, issue_approved_time = $6,
				version = version + 1
			WHERE id = $1 AND version = $2
		`
		tag, err := tx.Exec(ctx, query,
			uuid.UUID(s.ID), s.Version, nullableUser(s.ReviewerID), string(s.Status),
			s.IssueTakenTime, s.IssueApprovedTime,
		)
		if err != nil {
			return fmt.Errorf("failed to update review: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrReviewConflict
		}
		return insertNewComments(ctx, tx, s)
	})
	if err != nil {
		return err
	}

	rv.SetVersion(s.Version + 1)
	return nil
}

func insertNewComments(ctx context.Context, tx pgx.Tx, s review.State) error {
	if len(s.Comments) == 0 {
		return nil
	}

	const query = `
		INSERT INTO review_comments (id, review_id, author_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	batch := &pgx.Batch{}
	for _, c := range s.Comments {
		batch.Queue(query, uuid.UUID(c.ID), uuid.UUID(s.ID), uuid.UUID(c.AuthorID), c.Message.String(), c.CreatedAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to write comments: %w", err)
	}
	return nil
}

func nullableUser(id *shared.UserID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*id), Valid: true}
}
