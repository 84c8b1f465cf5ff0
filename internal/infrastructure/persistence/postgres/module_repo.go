package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/learnhub/learnhub/internal/domain/module"
	"github.com/learnhub/learnhub/internal/domain/shared"
)

// ModuleRepository implements module.Repository using PostgreSQL.
// A module row and its issue rows are always written in one transaction.
type ModuleRepository struct {
	conn *Connection
}

// NewModuleRepository creates a new ModuleRepository.
func NewModuleRepository(conn *Connection) *ModuleRepository {
	return &ModuleRepository{conn: conn}
}

// GetByID loads a module with all of its issues, deleted ones included.
func (r *ModuleRepository) GetByID(ctx context.Context, id shared.ModuleID) (*module.Module, error) {
	var state module.State
	err := r.conn.WithTx(ctx, ReadOnlyTxOptions(), func(tx pgx.Tx) error {
		var err error
		state, err = r.loadState(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return module.Reconstitute(state), nil
}

func (r *ModuleRepository) loadState(ctx context.Context, q Querier, id shared.ModuleID) (module.State, error) {
	const moduleQuery = `
		SELECT title, description, deleted_at, created_at, updated_at, version
		FROM modules
		WHERE id = $1
	`

	state := module.State{ID: id}
	var title, description string
	err := q.QueryRow(ctx, moduleQuery, uuid.UUID(id)).Scan(
		&title,
		&description,
		&state.DeletedAt,
		&state.CreatedAt,
		&state.UpdatedAt,
		&state.Version,
	)
	if IsNoRows(err) {
		return module.State{}, shared.ErrModuleNotFound
	}
	if err != nil {
		return module.State{}, fmt.Errorf("failed to get module: %w", err)
	}
	state.Title = shared.Title(title)
	state.Description = shared.Description(description)

	const issuesQuery = `
		SELECT id, title, description, lesson_id, experience, position, file_ids::text[], deleted_at
		FROM issues
		WHERE module_id = $1
		ORDER BY deleted_at NULLS FIRST, position
	`

	rows, err := q.Query(ctx, issuesQuery, uuid.UUID(id))
	if err != nil {
		return module.State{}, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			issueID              uuid.UUID
			issueTitle, issueDsc string
			lessonID             uuid.NullUUID
			experience, position int
			fileIDs              []string
			deletedAt            *time.Time
		)
		if err := rows.Scan(&issueID, &issueTitle, &issueDsc, &lessonID, &experience, &position, &fileIDs, &deletedAt); err != nil {
			return module.State{}, fmt.Errorf("failed to scan issue: %w", err)
		}

		is := module.IssueState{
			ID:       shared.IssueID(issueID),
			ModuleID: id,
			Info: module.IssueInfo{
				Title:       shared.Title(issueTitle),
				Description: shared.Description(issueDsc),
				Experience:  shared.Experience(experience),
			},
			Position:  shared.Position(position),
			DeletedAt: deletedAt,
		}
		if lessonID.Valid {
			is.Info.LessonID = shared.LessonID(lessonID.UUID)
		}
		for _, raw := range fileIDs {
			f, err := uuid.Parse(raw)
			if err != nil {
				return module.State{}, shared.WrapError("module", "GetByID", shared.ErrDataIntegrity, "invalid file id", err)
			}
			is.FileIDs = append(is.FileIDs, shared.FileID(f))
		}
		state.Issues = append(state.Issues, is)
	}
	if err := rows.Err(); err != nil {
		return module.State{}, fmt.Errorf("failed to iterate issues: %w", err)
	}

	return state, nil
}

// Add stores a new module at version 1.
func (r *ModuleRepository) Add(ctx context.Context, m *module.Module) error {
	s := m.Snapshot()

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		const query = `
			INSERT INTO modules (id, title, description, deleted_at, created_at, updated_at, version)
			VALUES ($1, $2, $3, $4, $5, $6, 1)
		`
		_, err := tx.Exec(ctx, query,
			uuid.UUID(s.ID), s.Title.String(), s.Description.String(), s.DeletedAt, s.CreatedAt, s.UpdatedAt,
		)
		if IsUniqueViolation(err) {
			return shared.NewDomainError("module", "Add", shared.ErrAlreadyExists, "Module already exists")
		}
		if err != nil {
			return fmt.Errorf("failed to insert module: %w", err)
		}
		return writeIssues(ctx, tx, s)
	})
	if err != nil {
		return err
	}

	m.SetVersion(1)
	return nil
}

// Save bumps the module version if it still matches m.Version() and
// replaces the stored issue set with the aggregate's.
func (r *ModuleRepository) Save(ctx context.Context, m *module.Module) error {
	s := m.Snapshot()

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		const query = `
			UPDATE modules
			SET title = $3, description = $4, deleted_at = $5, updated_at = $6, version = version + 1
			WHERE id = $1 AND version = $2
		`
		tag, err := tx.Exec(ctx, query,
			uuid.UUID(s.ID), s.Version, s.Title.String(), s.Description.String(), s.DeletedAt, s.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update module: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrModuleConflict
		}
		return writeIssues(ctx, tx, s)
	})
	if err != nil {
		return err
	}

	m.SetVersion(s.Version + 1)
	return nil
}

func writeIssues(ctx context.Context, tx pgx.Tx, s module.State) error {
	keep := make([]string, 0, len(s.Issues))
	for _, is := range s.Issues {
		keep = append(keep, is.ID.String())
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM issues WHERE module_id = $1 AND NOT (id = ANY($2::uuid[]))`,
		uuid.UUID(s.ID), keep,
	); err != nil {
		return fmt.Errorf("failed to delete removed issues: %w", err)
	}

	const upsert = `
		INSERT INTO issues (id, module_id, title, description, lesson_id, experience, position, file_ids, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::uuid[], $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			lesson_id = EXCLUDED.lesson_id,
			experience = EXCLUDED.experience,
			position = EXCLUDED.position,
			file_ids = EXCLUDED.file_ids,
			deleted_at = EXCLUDED.deleted_at
	`

	batch := &pgx.Batch{}
	for _, is := range s.Issues {
		var lessonID uuid.NullUUID
		if !is.Info.LessonID.IsEmpty() {
			lessonID = uuid.NullUUID{UUID: uuid.UUID(is.Info.LessonID), Valid: true}
		}
		files := make([]string, 0, len(is.FileIDs))
		for _, f := range is.FileIDs {
			files = append(files, f.String())
		}
		batch.Queue(upsert,
			uuid.UUID(is.ID), uuid.UUID(s.ID), is.Info.Title.String(), is.Info.Description.String(),
			lessonID, is.Info.Experience.Int(), is.Position.Int(), files, is.DeletedAt,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to write issues: %w", err)
	}
	return nil
}

// ListIDsWithExpiredIssues returns modules holding issues soft deleted
// at or before cutoff.
func (r *ModuleRepository) ListIDsWithExpiredIssues(ctx context.Context, cutoff time.Time) ([]shared.ModuleID, error) {
	const query = `
		SELECT DISTINCT module_id
		FROM issues
		WHERE deleted_at IS NOT NULL AND deleted_at <= $1
	`

	rows, err := r.conn.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired issues: %w", err)
	}
	defer rows.Close()

	var ids []shared.ModuleID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan module id: %w", err)
		}
		ids = append(ids, shared.ModuleID(id))
	}
	return ids, rows.Err()
}
