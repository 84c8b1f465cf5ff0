// Package jobs contains the scheduled maintenance jobs.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/learnhub/learnhub/internal/domain/module"
	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// PURGE EXPIRED ISSUES JOB
// Soft-deleted issues are kept for module.LifetimeAfterDeletion and can be
// restored in that window. This job removes the ones past it for good.
// ══════════════════════════════════════════════════════════════════════════════

// ExpiredIssueFinder lists modules that hold expired issues.
type ExpiredIssueFinder interface {
	ListIDsWithExpiredIssues(ctx context.Context, cutoff time.Time) ([]shared.ModuleID, error)
}

// ModuleMutator runs a conflict-retried load -> mutate -> save cycle.
type ModuleMutator interface {
	Mutate(ctx context.Context, op string, id shared.ModuleID, fn func(m *module.Module) error) (*module.Module, error)
}

// PurgeStats contains statistics from a purge run.
type PurgeStats struct {
	StartedAt      time.Time
	Duration       time.Duration
	ModulesScanned int
	IssuesPurged   int
	Failures       int
}

// PurgeExpiredIssuesJob hard deletes issues whose retention has elapsed.
type PurgeExpiredIssuesJob struct {
	finder  ExpiredIssueFinder
	mutator ModuleMutator
	clock   func() time.Time
	logger  *slog.Logger

	lastStats atomic.Pointer[PurgeStats]
}

// NewPurgeExpiredIssuesJob creates a new purge job.
func NewPurgeExpiredIssuesJob(finder ExpiredIssueFinder, mutator ModuleMutator, clock func() time.Time, log *slog.Logger) *PurgeExpiredIssuesJob {
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &PurgeExpiredIssuesJob{
		finder:  finder,
		mutator: mutator,
		clock:   clock,
		logger:  log.With(logger.Component("purge_expired_issues")),
	}
}

// Name returns the job name.
func (j *PurgeExpiredIssuesJob) Name() string {
	return "purge_expired_issues"
}

// Description returns a human-readable description.
func (j *PurgeExpiredIssuesJob) Description() string {
	return "Hard deletes issues soft deleted more than 30 days ago"
}

// Run executes the purge. One failing module does not stop the others;
// their errors are joined into the result.
func (j *PurgeExpiredIssuesJob) Run(ctx context.Context) error {
	now := j.clock()
	stats := &PurgeStats{StartedAt: now}
	defer func() {
		stats.Duration = time.Since(now)
		j.lastStats.Store(stats)
	}()

	ids, err := j.finder.ListIDsWithExpiredIssues(ctx, now.Add(-module.LifetimeAfterDeletion))
	if err != nil {
		return fmt.Errorf("failed to list modules: %w", err)
	}
	stats.ModulesScanned = len(ids)

	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		var removed []shared.IssueID
		_, err := j.mutator.Mutate(ctx, "purge_expired_issues", id, func(m *module.Module) error {
			removed = m.DeleteExpiredIssues(now)
			return nil
		})
		if err != nil {
			stats.Failures++
			errs = append(errs, fmt.Errorf("module %s: %w", id, err))
			j.logger.Warn("failed to purge module", logger.ModuleID(id.String()), logger.Err(err))
			continue
		}

		stats.IssuesPurged += len(removed)
		if len(removed) > 0 {
			j.logger.Info(fmt.Sprintf("%d expired issues were deleted from module %s", len(removed), id))
		}
	}

	j.logger.Info("purge finished",
		"modules", stats.ModulesScanned,
		"issues_purged", stats.IssuesPurged,
		"failures", stats.Failures,
	)
	return errors.Join(errs...)
}

// LastStats returns the statistics of the last run, or nil.
func (j *PurgeExpiredIssuesJob) LastStats() *PurgeStats {
	return j.lastStats.Load()
}
