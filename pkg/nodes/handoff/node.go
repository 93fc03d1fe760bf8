// Package handoff implements the creative-to-deterministic hand-off node.
package handoff

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getleadpipe/leadpipe/pkg/models"
)

// HandoffNode copies the creative draft into the deterministic agent's input.
// Graph validation guarantees it executes at most once per run; hitting it a
// second time is an internal error.
type HandoffNode struct {
	logger *slog.Logger
}

func NewHandoffNode(config map[string]any) (*HandoffNode, error) {
	return &HandoffNode{
		logger: slog.Default().With("module", "node", "node_type", "handoff"),
	}, nil
}

func (n *HandoffNode) Type() string {
	return "handoff"
}

func (n *HandoffNode) Run(ctx context.Context, state *models.ExecutionState) error {
	if state.Validated() && !state.ValidationPassed() {
		state.AppendLog(models.LogLevelInfo, n.Type(), "skipped: lead failed validation", nil)

		return nil
	}

	if state.HandoffDone() {
		return errors.New("hand-off already performed for this run")
	}

	draft := state.Message()
	if draft == "" {
		state.AppendLog(models.LogLevelInfo, n.Type(), "skipped: no draft to hand off", nil)

		return nil
	}

	fromRole, toRole := handoffRoles(state)

	state.SetDeterministicInput(draft)
	state.AppendTranscript(models.TranscriptEntry{
		Role:      models.MessageRoleAssistant,
		AgentRole: fromRole + "/" + toRole,
		Content:   draft,
		Metadata: map[string]any{
			"handoff_from": fromRole,
			"handoff_to":   toRole,
		},
	})
	state.AppendLog(models.LogLevelInfo, n.Type(), "draft handed off", map[string]any{
		"from_role": fromRole,
		"to_role":   toRole,
	})
	n.logger.DebugContext(ctx, "draft handed off", "lead_id", state.LeadID)

	return nil
}

func handoffRoles(state *models.ExecutionState) (string, string) {
	fromRole, toRole := models.RoleCreative, models.RoleDeterministic

	if config := state.Roles.CreativeConfig(); config != nil && config.Role != "" {
		fromRole = config.Role
	}

	if config := state.Roles.DeterministicConfig(); config != nil && config.Role != "" {
		toRole = config.Role
	}

	return fromRole, toRole
}
