package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/internal/domain/solving"
	"github.com/learnhub/learnhub/pkg/logger"
)

type countingCatalog struct {
	issues map[shared.IssueID]solving.CatalogIssue
	calls  int
}

func (c *countingCatalog) GetIssueByID(_ context.Context, id shared.IssueID) (solving.CatalogIssue, error) {
	c.calls++
	issue, ok := c.issues[id]
	if !ok {
		return solving.CatalogIssue{}, shared.ErrIssueNotFound
	}
	return issue, nil
}

func (c *countingCatalog) GetIssueByPosition(_ context.Context, moduleID shared.ModuleID, pos shared.Position) (solving.CatalogIssue, error) {
	c.calls++
	for _, issue := range c.issues {
		if issue.ModuleID == moduleID && issue.Position == pos {
			return issue, nil
		}
	}
	return solving.CatalogIssue{}, shared.ErrIssueNotFound
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	cfg := DefaultConfig()
	cfg.Addr = addr
	cfg.DB = 15
	cache, err := NewCache(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = cache.Client().FlushDB(context.Background()).Err()
		_ = cache.Close()
	})
	return cache
}

func TestCachedIssueCatalog_ReadThroughAndInvalidate(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	issue := solving.CatalogIssue{
		ID:       shared.NewIssueID(),
		ModuleID: shared.NewModuleID(),
		Position: shared.MustPosition(2),
		Title:    "Closures",
	}
	next := &countingCatalog{issues: map[shared.IssueID]solving.CatalogIssue{issue.ID: issue}}
	catalog := NewCachedIssueCatalog(next, cache, time.Minute, logger.Discard())

	got, err := catalog.GetIssueByID(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, issue, got)

	got, err = catalog.GetIssueByID(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, issue, got)
	assert.Equal(t, 1, next.calls)

	_, err = catalog.GetIssueByPosition(ctx, issue.ModuleID, issue.Position)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)

	require.NoError(t, catalog.Invalidate(ctx, issue.ModuleID))

	_, err = catalog.GetIssueByID(ctx, issue.ID)
	require.NoError(t, err)
	_, err = catalog.GetIssueByPosition(ctx, issue.ModuleID, issue.Position)
	require.NoError(t, err)
	assert.Equal(t, 4, next.calls)
}

func TestCachedIssueCatalog_MissesAreNotCached(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	next := &countingCatalog{issues: map[shared.IssueID]solving.CatalogIssue{}}
	catalog := NewCachedIssueCatalog(next, cache, time.Minute, logger.Discard())

	id := shared.NewIssueID()
	for i := 0; i < 2; i++ {
		_, err := catalog.GetIssueByID(ctx, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	}
	assert.Equal(t, 2, next.calls)
}

func TestCatalogKeys(t *testing.T) {
	assert.Equal(t, "catalog:issue:abc", CatalogIssueKey("abc"))
	assert.Equal(t, "catalog:position:m1:3", CatalogPositionKey("m1", 3))
	assert.Equal(t, "catalog:module:m1", CatalogModuleIndex("m1"))
}
