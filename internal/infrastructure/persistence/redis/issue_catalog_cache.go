package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/internal/domain/solving"
	"github.com/learnhub/learnhub/pkg/circuitbreaker"
	"github.com/learnhub/learnhub/pkg/logger"
)

// CachedIssueCatalog is a read-through cache in front of a
// solving.IssueCatalog. Entries are grouped per module so that any change to
// a module's issue set drops all of them. Misses are never cached.
//
// Cache traffic goes through a circuit breaker; while Redis is failing,
// lookups go straight to the wrapped catalog.
type CachedIssueCatalog struct {
	next    solving.IssueCatalog
	cache   *Cache
	ttl     time.Duration
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewCachedIssueCatalog wraps next with a Redis cache.
func NewCachedIssueCatalog(next solving.IssueCatalog, cache *Cache, ttl time.Duration, log *slog.Logger) *CachedIssueCatalog {
	if ttl <= 0 {
		ttl = TTLCatalog
	}
	c := &CachedIssueCatalog{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log.With(logger.Component("catalog_cache")),
	}
	c.breaker = circuitbreaker.New("catalog-cache",
		circuitbreaker.WithFailureThreshold(3),
		circuitbreaker.WithSuccessThreshold(1),
		circuitbreaker.WithTimeout(10*time.Second),
		circuitbreaker.WithIsFailure(func(err error) bool { return !errors.Is(err, ErrCacheMiss) }),
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			c.logger.Warn("cache breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		}),
	)
	return c
}

// GetIssueByID returns the issue from cache or the wrapped catalog.
func (c *CachedIssueCatalog) GetIssueByID(ctx context.Context, id shared.IssueID) (solving.CatalogIssue, error) {
	return c.lookup(ctx, CatalogIssueKey(id.String()), func() (solving.CatalogIssue, error) {
		return c.next.GetIssueByID(ctx, id)
	})
}

// GetIssueByPosition returns the issue from cache or the wrapped catalog.
func (c *CachedIssueCatalog) GetIssueByPosition(ctx context.Context, moduleID shared.ModuleID, position shared.Position) (solving.CatalogIssue, error) {
	return c.lookup(ctx, CatalogPositionKey(moduleID.String(), position.Int()), func() (solving.CatalogIssue, error) {
		return c.next.GetIssueByPosition(ctx, moduleID, position)
	})
}

func (c *CachedIssueCatalog) lookup(ctx context.Context, key string, load func() (solving.CatalogIssue, error)) (solving.CatalogIssue, error) {
	var issue solving.CatalogIssue
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.cache.Get(ctx, key, &issue)
	})
	if err == nil {
		return issue, nil
	}
	if !errors.Is(err, ErrCacheMiss) && !circuitbreaker.IsRejected(err) {
		c.logger.Warn("catalog cache read failed", "key", key, logger.Err(err))
	}

	issue, err = load()
	if err != nil {
		return solving.CatalogIssue{}, err
	}

	index := CatalogModuleIndex(issue.ModuleID.String())
	err = c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.cache.SetTracked(ctx, index, key, issue, c.ttl)
	})
	if err != nil && !circuitbreaker.IsRejected(err) {
		c.logger.Warn("catalog cache write failed", "key", key, logger.Err(err))
	}
	return issue, nil
}

// Invalidate drops every cached entry of a module.
func (c *CachedIssueCatalog) Invalidate(ctx context.Context, moduleID shared.ModuleID) error {
	return c.cache.DeleteTracked(ctx, CatalogModuleIndex(moduleID.String()))
}
