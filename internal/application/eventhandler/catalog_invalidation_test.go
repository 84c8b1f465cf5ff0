package eventhandler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/pkg/logger"
	"github.com/learnhub/learnhub/pkg/retry"
)

type mockInvalidator struct {
	mock.Mock
}

func (m *mockInvalidator) Invalidate(ctx context.Context, moduleID shared.ModuleID) error {
	return m.Called(ctx, moduleID).Error(0)
}

type foreignEvent struct {
	shared.BaseEvent
}

func (foreignEvent) Payload() map[string]interface{} { return nil }

func TestCatalogInvalidation_InvalidatesModule(t *testing.T) {
	inv := new(mockInvalidator)
	h := NewCatalogInvalidationHandler(inv, time.Second, logger.Discard())

	moduleID := shared.NewModuleID()
	inv.On("Invalidate", mock.Anything, moduleID).Return(nil).Once()

	event := shared.NewIssueChangedEvent(shared.EventIssueSoftDeleted, moduleID, shared.NewIssueID(), shared.Position(2))
	require.NoError(t, h.Handle(event))
	inv.AssertExpectations(t)
}

func TestCatalogInvalidation_BadAggregateIsPermanent(t *testing.T) {
	inv := new(mockInvalidator)
	h := NewCatalogInvalidationHandler(inv, time.Second, logger.Discard())

	err := h.Handle(foreignEvent{shared.NewBaseEvent(shared.EventIssueAdded, "not-a-uuid")})
	require.Error(t, err)
	assert.True(t, retry.IsPermanent(err))
	inv.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestCatalogInvalidation_StoreFailureIsRetryable(t *testing.T) {
	inv := new(mockInvalidator)
	h := NewCatalogInvalidationHandler(inv, time.Second, logger.Discard())

	inv.On("Invalidate", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	err := h.Handle(shared.NewModuleLifecycleEvent(shared.EventModuleDeleted, shared.NewModuleID(), nil))
	require.Error(t, err)
	assert.False(t, retry.IsPermanent(err))
}

func TestCatalogInvalidation_CoversLayoutEvents(t *testing.T) {
	h := NewCatalogInvalidationHandler(new(mockInvalidator), 0, logger.Discard())
	types := h.EventTypes()
	assert.Contains(t, types, shared.EventIssuesReordered)
	assert.Contains(t, types, shared.EventExpiredIssuesPurged)
	assert.NotContains(t, types, shared.EventModuleCreated)
}
