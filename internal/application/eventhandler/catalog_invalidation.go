// Package eventhandler contains domain event handlers.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/pkg/logger"
	"github.com/learnhub/learnhub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG INVALIDATION HANDLER
// Drops cached issue lookups of a module whenever its layout changes, so
// the take-on-work gate never sequences against stale positions.
// ══════════════════════════════════════════════════════════════════════════════

// CatalogInvalidator forgets everything cached for a module.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context, moduleID shared.ModuleID) error
}

// CatalogInvalidationHandler handles module layout events.
type CatalogInvalidationHandler struct {
	invalidator CatalogInvalidator
	timeout     time.Duration
	logger      *slog.Logger
}

// NewCatalogInvalidationHandler creates a new CatalogInvalidationHandler.
func NewCatalogInvalidationHandler(invalidator CatalogInvalidator, timeout time.Duration, log *slog.Logger) *CatalogInvalidationHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CatalogInvalidationHandler{
		invalidator: invalidator,
		timeout:     timeout,
		logger:      log.With(logger.Component("catalog_invalidation")),
	}
}

// EventTypes returns the events the handler reacts to.
func (h *CatalogInvalidationHandler) EventTypes() []shared.EventType {
	return shared.ModuleEventTypes
}

// Handle implements shared.EventHandler. Module events carry the module id
// as their aggregate id, including events replayed from other instances.
func (h *CatalogInvalidationHandler) Handle(event shared.Event) error {
	moduleID, err := shared.ParseModuleID(event.AggregateID())
	if err != nil {
		return retry.Permanent(fmt.Errorf("catalog_invalidation: bad aggregate id %q: %w", event.AggregateID(), err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.invalidator.Invalidate(ctx, moduleID); err != nil {
		return fmt.Errorf("catalog_invalidation: %w", err)
	}

	h.logger.Debug("issue catalog invalidated",
		logger.ModuleID(moduleID.String()),
		"event_type", event.EventType(),
	)
	return nil
}
