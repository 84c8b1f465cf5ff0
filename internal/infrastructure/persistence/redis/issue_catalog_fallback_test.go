package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/internal/domain/solving"
	"github.com/learnhub/learnhub/pkg/circuitbreaker"
	"github.com/learnhub/learnhub/pkg/logger"
)

// unreachableCache points at a port nothing listens on, so every command fails.
func unreachableCache(t *testing.T) *Cache {
	t.Helper()
	client := goredis.NewClient(&goredis.Options{
		Addr:         "127.0.0.1:1",
		MaxRetries:   -1,
		DialTimeout:  100 * time.Millisecond,
		ReadTimeout:  100 * time.Millisecond,
		WriteTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })
	return &Cache{client: client}
}

func TestCachedIssueCatalog_FallsBackWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	issue := solving.CatalogIssue{
		ID:       shared.NewIssueID(),
		ModuleID: shared.NewModuleID(),
		Position: shared.MustPosition(1),
		Title:    "Goroutines",
	}
	next := &countingCatalog{issues: map[shared.IssueID]solving.CatalogIssue{issue.ID: issue}}
	catalog := NewCachedIssueCatalog(next, unreachableCache(t), time.Minute, logger.Discard())

	for i := 0; i < 3; i++ {
		got, err := catalog.GetIssueByID(ctx, issue.ID)
		require.NoError(t, err)
		assert.Equal(t, issue, got)
	}
	got, err := catalog.GetIssueByPosition(ctx, issue.ModuleID, issue.Position)
	require.NoError(t, err)
	assert.Equal(t, issue, got)

	assert.Equal(t, 4, next.calls)
	assert.Equal(t, circuitbreaker.StateOpen, catalog.breaker.State())
}

func TestCachedIssueCatalog_NotFoundPassesThrough(t *testing.T) {
	ctx := context.Background()
	next := &countingCatalog{issues: map[shared.IssueID]solving.CatalogIssue{}}
	catalog := NewCachedIssueCatalog(next, unreachableCache(t), time.Minute, logger.Discard())

	id := shared.NewIssueID()
	for i := 0; i < 2; i++ {
		_, err := catalog.GetIssueByID(ctx, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.True(t, shared.IsNotFound(err))
	}
	_, err := catalog.GetIssueByPosition(ctx, shared.NewModuleID(), shared.MustPosition(1))
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.Equal(t, 3, next.calls)
	// Catalog misses are not cache failures.
	assert.Equal(t, circuitbreaker.StateClosed, catalog.breaker.State())
}

func TestCachedIssueCatalog_InvalidateReportsRedisErrors(t *testing.T) {
	next := &countingCatalog{issues: map[shared.IssueID]solving.CatalogIssue{}}
	catalog := NewCachedIssueCatalog(next, unreachableCache(t), time.Minute, logger.Discard())

	assert.Error(t, catalog.Invalidate(context.Background(), shared.NewModuleID()))
}
