package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/learnhub/learnhub/internal/domain/module"
	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE / RESTORE MODULE COMMANDS
// Module deletion is always soft and cascades to the module's issues.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteModuleCommand soft deletes a module.
type DeleteModuleCommand struct {
	ModuleID shared.ModuleID
}

// Validate validates the command.
func (c DeleteModuleCommand) Validate() error {
	return requireModuleID("delete_module", c.ModuleID)
}

// DeleteModuleHandler handles the DeleteModuleCommand.
type DeleteModuleHandler struct {
	writer *ModuleWriter
	clock  Clock
	logger *slog.Logger
}

// NewDeleteModuleHandler creates a new DeleteModuleHandler.
func NewDeleteModuleHandler(writer *ModuleWriter, clock Clock, log *slog.Logger) *DeleteModuleHandler {
	return &DeleteModuleHandler{writer: writer, clock: clock, logger: log}
}

// Handle executes the delete module command.
func (h *DeleteModuleHandler) Handle(ctx context.Context, cmd DeleteModuleCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("delete_module: validation failed: %w", err)
	}

	now := h.clock()
	_, err := h.writer.Mutate(ctx, "soft_delete", cmd.ModuleID, func(m *module.Module) error {
		m.SoftDelete(now)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete_module: %w", err)
	}

	h.logger.Info("module was soft deleted", logger.ModuleID(cmd.ModuleID.String()))
	return nil
}

// RestoreModuleCommand restores a soft-deleted module.
type RestoreModuleCommand struct {
	ModuleID shared.ModuleID
}

// Validate validates the command.
func (c RestoreModuleCommand) Validate() error {
	return requireModuleID("restore_module", c.ModuleID)
}

// RestoreModuleHandler handles the RestoreModuleCommand.
type RestoreModuleHandler struct {
	writer *ModuleWriter
	logger *slog.Logger
}

// NewRestoreModuleHandler creates a new RestoreModuleHandler.
func NewRestoreModuleHandler(writer *ModuleWriter, log *slog.Logger) *RestoreModuleHandler {
	return &RestoreModuleHandler{writer: writer, logger: log}
}

// Handle executes the restore module command.
func (h *RestoreModuleHandler) Handle(ctx context.Context, cmd RestoreModuleCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("restore_module: validation failed: %w", err)
	}

	_, err := h.writer.Mutate(ctx, "restore", cmd.ModuleID, func(m *module.Module) error {
		m.Restore()
		return nil
	})
	if err != nil {
		return fmt.Errorf("restore_module: %w", err)
	}

	h.logger.Info("module was restored", logger.ModuleID(cmd.ModuleID.String()))
	return nil
}
