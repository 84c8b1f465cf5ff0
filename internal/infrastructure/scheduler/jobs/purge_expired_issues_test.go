package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learnhub/internal/domain/module"
	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/pkg/logger"
)

type memoryModules struct {
	modules  map[shared.ModuleID]*module.Module
	failOn   shared.ModuleID
	cutoff   time.Time
	mutateOp string
}

func (s *memoryModules) ListIDsWithExpiredIssues(_ context.Context, cutoff time.Time) ([]shared.ModuleID, error) {
	s.cutoff = cutoff
	var ids []shared.ModuleID
	for id, m := range s.modules {
		for _, issue := range m.Issues() {
			if d := issue.DeletedAt(); d != nil && !d.After(cutoff) {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids, nil
}

func (s *memoryModules) Mutate(_ context.Context, op string, id shared.ModuleID, fn func(m *module.Module) error) (*module.Module, error) {
	s.mutateOp = op
	if id == s.failOn {
		return nil, shared.ErrModuleConflict
	}
	m, ok := s.modules[id]
	if !ok {
		return nil, shared.ErrModuleNotFound
	}
	if err := fn(m); err != nil {
		return nil, err
	}
	return m, nil
}

func newModuleWithIssues(t *testing.T, created time.Time, n int) (*module.Module, []shared.IssueID) {
	t.Helper()
	m, err := module.NewModule("Go basics", "", created)
	require.NoError(t, err)

	var ids []shared.IssueID
	for i := 0; i < n; i++ {
		info, err := module.NewIssueInfo("Task", "", "", 10)
		require.NoError(t, err)
		issue := module.NewIssue(info, nil)
		require.NoError(t, m.AddIssue(issue))
		ids = append(ids, issue.ID())
	}
	return m, ids
}

func TestPurgeExpiredIssuesJob_Run(t *testing.T) {
	now := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	longAgo := now.Add(-31 * 24 * time.Hour)
	recently := now.Add(-2 * 24 * time.Hour)

	m, ids := newModuleWithIssues(t, longAgo, 3)
	require.NoError(t, m.SoftDeleteIssue(ids[0], longAgo))
	require.NoError(t, m.SoftDeleteIssue(ids[1], recently))
	m.PullEvents()

	store := &memoryModules{modules: map[shared.ModuleID]*module.Module{m.ID(): m}}
	job := NewPurgeExpiredIssuesJob(store, store, func() time.Time { return now }, logger.Discard())

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, now.Add(-module.LifetimeAfterDeletion), store.cutoff)
	assert.Equal(t, "purge_expired_issues", store.mutateOp)

	_, err := m.GetIssueByID(ids[0])
	assert.ErrorIs(t, err, shared.ErrNotFound)
	kept, err := m.GetIssueByID(ids[1])
	require.NoError(t, err)
	assert.True(t, kept.IsDeleted())
	active, err := m.GetIssueByID(ids[2])
	require.NoError(t, err)
	assert.Equal(t, 1, active.Position().Int())

	stats := job.LastStats()
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.ModulesScanned)
	assert.Equal(t, 1, stats.IssuesPurged)
	assert.Zero(t, stats.Failures)

	events := m.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, shared.EventExpiredIssuesPurged, events[0].EventType())
}

func TestPurgeExpiredIssuesJob_PurgesAtRetentionBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	deletedAt := now.Add(-module.LifetimeAfterDeletion)

	m, ids := newModuleWithIssues(t, deletedAt.Add(-time.Hour), 2)
	require.NoError(t, m.SoftDeleteIssue(ids[0], deletedAt))
	m.PullEvents()

	store := &memoryModules{modules: map[shared.ModuleID]*module.Module{m.ID(): m}}
	job := NewPurgeExpiredIssuesJob(store, store, func() time.Time { return now }, logger.Discard())

	require.NoError(t, job.Run(context.Background()))

	_, err := m.GetIssueByID(ids[0])
	assert.True(t, shared.IsNotFound(err))
	assert.Equal(t, 1, job.LastStats().IssuesPurged)
}

func TestPurgeExpiredIssuesJob_ContinuesPastFailures(t *testing.T) {
	now := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	longAgo := now.Add(-40 * 24 * time.Hour)

	failing, failingIDs := newModuleWithIssues(t, longAgo, 1)
	require.NoError(t, failing.SoftDeleteIssue(failingIDs[0], longAgo))
	healthy, healthyIDs := newModuleWithIssues(t, longAgo, 2)
	require.NoError(t, healthy.SoftDeleteIssue(healthyIDs[0], longAgo))
	require.NoError(t, healthy.SoftDeleteIssue(healthyIDs[1], longAgo))

	store := &memoryModules{
		modules: map[shared.ModuleID]*module.Module{failing.ID(): failing, healthy.ID(): healthy},
		failOn:  failing.ID(),
	}
	job := NewPurgeExpiredIssuesJob(store, store, func() time.Time { return now }, logger.Discard())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConflict))

	assert.Empty(t, healthy.Issues())
	stats := job.LastStats()
	assert.Equal(t, 2, stats.ModulesScanned)
	assert.Equal(t, 2, stats.IssuesPurged)
	assert.Equal(t, 1, stats.Failures)
}

func TestPurgeExpiredIssuesJob_NothingToDo(t *testing.T) {
	store := &memoryModules{modules: map[shared.ModuleID]*module.Module{}}
	job := NewPurgeExpiredIssuesJob(store, store, nil, logger.Discard())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, "purge_expired_issues", job.Name())
	assert.Zero(t, job.LastStats().ModulesScanned)
}
