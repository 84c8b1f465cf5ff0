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
// CREATE MODULE COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// CreateModuleCommand contains the data to create a module.
type CreateModuleCommand struct {
	Title       string
	Description string
}

// CreateModuleResult contains the result of creating a module.
type CreateModuleResult struct {
	ModuleID shared.ModuleID
}

// CreateModuleHandler handles the CreateModuleCommand.
type CreateModuleHandler struct {
	writer *ModuleWriter
	clock  Clock
	logger *slog.Logger
}

// NewCreateModuleHandler creates a new CreateModuleHandler.
func NewCreateModuleHandler(writer *ModuleWriter, clock Clock, log *slog.Logger) *CreateModuleHandler {
	return &CreateModuleHandler{writer: writer, clock: clock, logger: log}
}

// Handle executes the create module command.
func (h *CreateModuleHandler) Handle(ctx context.Context, cmd CreateModuleCommand) (*CreateModuleResult, error) {
	m, err := module.NewModule(cmd.Title, cmd.Description, h.clock())
	if err != nil {
		return nil, fmt.Errorf("create_module: validation failed: %w", err)
	}
	if err := h.writer.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create_module: failed to save module: %w", err)
	}

	h.logger.Info("module created", logger.ModuleID(m.ID().String()))
	return &CreateModuleResult{ModuleID: m.ID()}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE MODULE INFO COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// UpdateModuleInfoCommand renames a module or changes its description.
type UpdateModuleInfoCommand struct {
	ModuleID    shared.ModuleID
	Title       string
	Description string
}

// Validate validates the command.
func (c UpdateModuleInfoCommand) Validate() error {
	return requireModuleID("update_module_info", c.ModuleID)
}

// UpdateModuleInfoHandler handles the UpdateModuleInfoCommand.
type UpdateModuleInfoHandler struct {
	writer *ModuleWriter
	logger *slog.Logger
}

// NewUpdateModuleInfoHandler creates a new UpdateModuleInfoHandler.
func NewUpdateModuleInfoHandler(writer *ModuleWriter, log *slog.Logger) *UpdateModuleInfoHandler {
	return &UpdateModuleInfoHandler{writer: writer, logger: log}
}

// Handle executes the update module info command.
func (h *UpdateModuleInfoHandler) Handle(ctx context.Context, cmd UpdateModuleInfoCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("update_module_info: validation failed: %w", err)
	}

	_, err := h.writer.Mutate(ctx, "update_info", cmd.ModuleID, func(m *module.Module) error {
		return m.UpdateMainInfo(cmd.Title, cmd.Description)
	})
	if err != nil {
		return fmt.Errorf("update_module_info: %w", err)
	}

	h.logger.Info("module info updated", logger.ModuleID(cmd.ModuleID.String()))
	return nil
}
