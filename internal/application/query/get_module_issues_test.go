package query

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learnhub/internal/domain/module"
	"github.com/learnhub/learnhub/internal/domain/shared"
)

type stubModules struct {
	module.Repository
	modules map[shared.ModuleID]*module.Module
}

func (s stubModules) GetByID(_ context.Context, id shared.ModuleID) (*module.Module, error) {
	m, ok := s.modules[id]
	if !ok {
		return nil, shared.ErrModuleNotFound
	}
	return m, nil
}

func newModuleWithIssues(t *testing.T, titles ...string) (*module.Module, []shared.IssueID) {
	t.Helper()
	m, err := module.NewModule("Go basics", "intro", time.Now())
	require.NoError(t, err)
	var ids []shared.IssueID
	for _, title := range titles {
		info, err := module.NewIssueInfo(title, "", "", 5)
		require.NoError(t, err)
		issue := module.NewIssue(info, []shared.FileID{shared.FileID(uuid.New())})
		require.NoError(t, m.AddIssue(issue))
		ids = append(ids, issue.ID())
	}
	return m, ids
}

func TestGetModuleIssues(t *testing.T) {
	m, ids := newModuleWithIssues(t, "Hello", "Loops", "Maps")
	require.NoError(t, m.MoveIssue(ids[2], shared.MustPosition(1)))
	require.NoError(t, m.SoftDeleteIssue(ids[0], time.Now()))

	h := NewGetModuleIssuesHandler(stubModules{modules: map[shared.ModuleID]*module.Module{m.ID(): m}})

	dto, err := h.Handle(context.Background(), GetModuleIssuesQuery{ModuleID: m.ID()})
	require.NoError(t, err)
	assert.Equal(t, 2, dto.ActiveCount)
	require.Len(t, dto.Issues, 2)
	assert.Equal(t, "Maps", dto.Issues[0].Title)
	assert.Equal(t, 1, dto.Issues[0].Position)
	assert.Equal(t, "Loops", dto.Issues[1].Title)
	assert.Equal(t, 2, dto.Issues[1].Position)
	assert.Len(t, dto.Issues[0].FileIDs, 1)
	assert.Empty(t, dto.Issues[0].LessonID)

	dto, err = h.Handle(context.Background(), GetModuleIssuesQuery{ModuleID: m.ID(), IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, dto.Issues, 3)
	assert.Equal(t, "Hello", dto.Issues[2].Title)
	assert.NotNil(t, dto.Issues[2].DeletedAt)
}

func TestGetModuleIssues_Errors(t *testing.T) {
	h := NewGetModuleIssuesHandler(stubModules{modules: map[shared.ModuleID]*module.Module{}})

	_, err := h.Handle(context.Background(), GetModuleIssuesQuery{})
	assert.Error(t, err)

	_, err = h.Handle(context.Background(), GetModuleIssuesQuery{ModuleID: shared.NewModuleID()})
	assert.ErrorIs(t, err, shared.ErrModuleNotFound)
}
