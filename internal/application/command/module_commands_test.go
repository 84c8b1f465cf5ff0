package command

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learnhub/internal/domain/module"
	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/pkg/logger"
)

type moduleFixture struct {
	repo     *memoryModules
	pub      *recordingPublisher
	writer   *ModuleWriter
	moduleID shared.ModuleID
	issueIDs []shared.IssueID
}

func newModuleFixture(t *testing.T, issues int) *moduleFixture {
	t.Helper()
	f := &moduleFixture{repo: newMemoryModules(), pub: &recordingPublisher{}}
	f.writer = newTestModuleWriter(f.repo, f.pub)
	ctx := context.Background()

	created, err := NewCreateModuleHandler(f.writer, testClock, logger.Discard()).
		Handle(ctx, CreateModuleCommand{Title: "Go basics"})
	require.NoError(t, err)
	f.moduleID = created.ModuleID

	add := NewAddIssueHandler(f.writer, logger.Discard())
	for i := 0; i < issues; i++ {
		res, err := add.Handle(ctx, AddIssueCommand{ModuleID: f.moduleID, Title: "Issue", Experience: 10})
		require.NoError(t, err)
		assert.Equal(t, i+1, res.Position.Int())
		f.issueIDs = append(f.issueIDs, res.IssueID)
	}
	return f
}

func (f *moduleFixture) load(t *testing.T) *module.Module {
	t.Helper()
	m, err := f.repo.GetByID(context.Background(), f.moduleID)
	require.NoError(t, err)
	return m
}

func (f *moduleFixture) order(t *testing.T) []shared.IssueID {
	t.Helper()
	var ids []shared.IssueID
	for _, issue := range f.load(t).ActiveIssues() {
		ids = append(ids, issue.ID())
	}
	return ids
}

func TestMoveIssue_ShiftsNeighbours(t *testing.T) {
	f := newModuleFixture(t, 4)
	h := NewMoveIssueHandler(f.writer, logger.Discard())
	a, b, c, d := f.issueIDs[0], f.issueIDs[1], f.issueIDs[2], f.issueIDs[3]

	res, err := h.Handle(context.Background(), MoveIssueCommand{ModuleID: f.moduleID, IssueID: d, NewPosition: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Position.Int())
	assert.Equal(t, []shared.IssueID{a, d, b, c}, f.order(t))

	res, err = h.Handle(context.Background(), MoveIssueCommand{ModuleID: f.moduleID, IssueID: a, NewPosition: 99})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Position.Int())
	assert.Equal(t, []shared.IssueID{d, b, c, a}, f.order(t))

	assert.Contains(t, f.pub.types(), shared.EventIssuesReordered)
}

func TestMoveIssue_Validation(t *testing.T) {
	f := newModuleFixture(t, 2)
	h := NewMoveIssueHandler(f.writer, logger.Discard())

	_, err := h.Handle(context.Background(), MoveIssueCommand{ModuleID: f.moduleID, IssueID: f.issueIDs[0], NewPosition: 0})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(context.Background(), MoveIssueCommand{ModuleID: f.moduleID, IssueID: shared.NewIssueID(), NewPosition: 1})
	assert.True(t, shared.IsNotFound(err))

	_, err = h.Handle(context.Background(), MoveIssueCommand{ModuleID: shared.NewModuleID(), IssueID: f.issueIDs[0], NewPosition: 1})
	assert.ErrorIs(t, err, shared.ErrModuleNotFound)
}

func TestIssueRemoval_SoftDeleteRestoreDelete(t *testing.T) {
	f := newModuleFixture(t, 3)
	h := NewIssueRemovalHandler(f.writer, testClock, logger.Discard())
	ctx := context.Background()
	a, b, c := f.issueIDs[0], f.issueIDs[1], f.issueIDs[2]

	require.NoError(t, h.HandleSoftDelete(ctx, SoftDeleteIssueCommand{ModuleID: f.moduleID, IssueID: a}))
	assert.Equal(t, []shared.IssueID{b, c}, f.order(t))
	assert.Equal(t, 2, f.load(t).ActiveCount())

	require.NoError(t, h.HandleRestore(ctx, RestoreIssueCommand{ModuleID: f.moduleID, IssueID: a}))
	assert.Equal(t, []shared.IssueID{b, c, a}, f.order(t))

	require.NoError(t, h.HandleDelete(ctx, DeleteIssueCommand{ModuleID: f.moduleID, IssueID: b}))
	assert.Equal(t, []shared.IssueID{c, a}, f.order(t))
	assert.Len(t, f.load(t).Issues(), 2)

	require.NoError(t, h.HandleDelete(ctx, DeleteIssueCommand{ModuleID: f.moduleID, IssueID: shared.NewIssueID()}))
	assert.Equal(t, []shared.IssueID{c, a}, f.order(t))

	assert.Subset(t, f.pub.types(), []shared.EventType{
		shared.EventIssueSoftDeleted,
		shared.EventIssueRestored,
		shared.EventIssueDeleted,
	})
}

func TestDeleteAndRestoreModule(t *testing.T) {
	f := newModuleFixture(t, 2)
	ctx := context.Background()

	require.NoError(t, NewDeleteModuleHandler(f.writer, testClock, logger.Discard()).
		Handle(ctx, DeleteModuleCommand{ModuleID: f.moduleID}))
	m := f.load(t)
	assert.True(t, m.IsDeleted())
	assert.Zero(t, m.ActiveCount())

	require.NoError(t, NewRestoreModuleHandler(f.writer, logger.Discard()).
		Handle(ctx, RestoreModuleCommand{ModuleID: f.moduleID}))
	assert.Equal(t, f.issueIDs, f.order(t))
	assert.False(t, f.load(t).IsDeleted())
}

func TestDeletedModule_RejectsAddIssue(t *testing.T) {
	f := newModuleFixture(t, 2)
	ctx := context.Background()

	require.NoError(t, NewDeleteModuleHandler(f.writer, testClock, logger.Discard()).
		Handle(ctx, DeleteModuleCommand{ModuleID: f.moduleID}))
	saves := f.repo.saves

	_, err := NewAddIssueHandler(f.writer, logger.Discard()).
		Handle(ctx, AddIssueCommand{ModuleID: f.moduleID, Title: "Late", Experience: 5})
	assert.ErrorIs(t, err, shared.ErrModuleDeleted)
	assert.False(t, shared.IsConflict(err))
	assert.Equal(t, saves, f.repo.saves)

	require.NoError(t, NewRestoreModuleHandler(f.writer, logger.Discard()).
		Handle(ctx, RestoreModuleCommand{ModuleID: f.moduleID}))
	assert.Equal(t, f.issueIDs, f.order(t))
}

func TestModuleWriter_RetriesLostRace(t *testing.T) {
	f := newModuleFixture(t, 2)
	f.repo.conflicts = 2
	f.pub.events = nil

	_, err := NewMoveIssueHandler(f.writer, logger.Discard()).
		Handle(context.Background(), MoveIssueCommand{ModuleID: f.moduleID, IssueID: f.issueIDs[1], NewPosition: 1})
	require.NoError(t, err)

	assert.Equal(t, []shared.IssueID{f.issueIDs[1], f.issueIDs[0]}, f.order(t))
	assert.Equal(t, []shared.EventType{shared.EventIssuesReordered}, f.pub.types())
}

func TestModuleWriter_GivesUpAfterMaxAttempts(t *testing.T) {
	f := newModuleFixture(t, 2)
	f.repo.conflicts = 3
	f.pub.events = nil

	_, err := NewMoveIssueHandler(f.writer, logger.Discard()).
		Handle(context.Background(), MoveIssueCommand{ModuleID: f.moduleID, IssueID: f.issueIDs[1], NewPosition: 1})
	require.Error(t, err)
	assert.True(t, shared.IsConflict(err))

	assert.Equal(t, f.issueIDs, f.order(t))
	assert.Empty(t, f.pub.types())
}

func TestCreateModule_Validation(t *testing.T) {
	writer := newTestModuleWriter(newMemoryModules(), nil)
	_, err := NewCreateModuleHandler(writer, testClock, logger.Discard()).
		Handle(context.Background(), CreateModuleCommand{Title: "   "})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestUpdateIssueInfo_ReplacesInfoAndFiles(t *testing.T) {
	f := newModuleFixture(t, 2)
	ctx := context.Background()
	h := NewUpdateIssueInfoHandler(f.writer, logger.Discard())
	lesson := uuid.New()
	file := shared.FileID(uuid.New())

	err := h.Handle(ctx, UpdateIssueInfoCommand{
		ModuleID:    f.moduleID,
		IssueID:     f.issueIDs[1],
		Title:       "Pointers",
		Description: "dereference things",
		LessonID:    lesson.String(),
		Experience:  40,
		FileIDs:     []shared.FileID{file},
	})
	require.NoError(t, err)

	// nil FileIDs leaves the attached files alone
	err = h.Handle(ctx, UpdateIssueInfoCommand{
		ModuleID:   f.moduleID,
		IssueID:    f.issueIDs[1],
		Title:      "Pointers and values",
		LessonID:   lesson.String(),
		Experience: 45,
	})
	require.NoError(t, err)

	issue, err := f.load(t).GetIssueByID(f.issueIDs[1])
	require.NoError(t, err)
	assert.Equal(t, "Pointers and values", issue.Title().String())
	assert.Equal(t, lesson.String(), issue.LessonID().String())
	assert.Equal(t, 45, issue.Experience().Int())
	assert.Equal(t, []shared.FileID{file}, issue.FileIDs())
	assert.Equal(t, 2, issue.Position().Int())
	assert.Contains(t, f.pub.types(), shared.EventIssueUpdated)
}

func TestUpdateIssueInfo_Errors(t *testing.T) {
	f := newModuleFixture(t, 1)
	ctx := context.Background()
	h := NewUpdateIssueInfoHandler(f.writer, logger.Discard())

	err := h.Handle(ctx, UpdateIssueInfoCommand{ModuleID: f.moduleID, IssueID: f.issueIDs[0], Experience: 0})
	assert.True(t, shared.IsValidation(err))

	err = h.Handle(ctx, UpdateIssueInfoCommand{ModuleID: f.moduleID, IssueID: shared.NewIssueID(), Title: "X", Experience: 1})
	assert.True(t, shared.IsNotFound(err))

	err = h.Handle(ctx, UpdateIssueInfoCommand{IssueID: f.issueIDs[0], Title: "X", Experience: 1})
	assert.True(t, shared.IsValidation(err))
}

func TestUpdateModuleInfo(t *testing.T) {
	f := newModuleFixture(t, 0)
	ctx := context.Background()
	h := NewUpdateModuleInfoHandler(f.writer, logger.Discard())

	require.NoError(t, h.Handle(ctx, UpdateModuleInfoCommand{
		ModuleID:    f.moduleID,
		Title:       "Go advanced",
		Description: "generics and concurrency",
	}))
	m := f.load(t)
	assert.Equal(t, "Go advanced", m.Title().String())
	assert.Equal(t, "generics and concurrency", m.Description().String())
	assert.Contains(t, f.pub.types(), shared.EventModuleUpdated)

	err := h.Handle(ctx, UpdateModuleInfoCommand{ModuleID: f.moduleID, Title: "  "})
	assert.True(t, shared.IsValidation(err))

	err = h.Handle(ctx, UpdateModuleInfoCommand{ModuleID: shared.NewModuleID(), Title: "X"})
	assert.True(t, shared.IsNotFound(err))
}
