package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/internal/domain/solving"
)

// IssueCatalog implements solving.IssueCatalog over the issues table.
// Issues that are soft deleted, or whose module is, are invisible.
type IssueCatalog struct {
	conn *Connection
}

// NewIssueCatalog creates a new IssueCatalog.
func NewIssueCatalog(conn *Connection) *IssueCatalog {
	return &IssueCatalog{conn: conn}
}

const catalogQuery = `
	SELECT i.id, i.module_id, i.position, i.title
	FROM issues i
	JOIN modules m ON m.id = i.module_id
	WHERE i.deleted_at IS NULL AND m.deleted_at IS NULL
`

// GetIssueByID returns an active issue.
func (c *IssueCatalog) GetIssueByID(ctx context.Context, id shared.IssueID) (solving.CatalogIssue, error) {
	return c.scan(c.conn.QueryRow(ctx, catalogQuery+" AND i.id = $1", uuid.UUID(id)))
}

// GetIssueByPosition returns the active issue at a position within a module.
func (c *IssueCatalog) GetIssueByPosition(ctx context.Context, moduleID shared.ModuleID, position shared.Position) (solving.CatalogIssue, error) {
	return c.scan(c.conn.QueryRow(ctx,
		catalogQuery+" AND i.module_id = $1 AND i.position = $2",
		uuid.UUID(moduleID), position.Int(),
	))
}

func (c *IssueCatalog) scan(row pgx.Row) (solving.CatalogIssue, error) {
	var (
		id, moduleID uuid.UUID
		position     int
		title        string
	)
	err := row.Scan(&id, &moduleID, &position, &title)
	if IsNoRows(err) {
		return solving.CatalogIssue{}, shared.ErrIssueNotFound
	}
	if err != nil {
		return solving.CatalogIssue{}, fmt.Errorf("failed to get catalog issue: %w", err)
	}
	return solving.CatalogIssue{
		ID:       shared.IssueID(id),
		ModuleID: shared.ModuleID(moduleID),
		Position: shared.Position(position),
		Title:    shared.Title(title),
	}, nil
}
