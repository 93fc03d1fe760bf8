// Package voice implements the voice call node.
package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/getleadpipe/leadpipe/pkg/delivery"
	"github.com/getleadpipe/leadpipe/pkg/engine"
	"github.com/getleadpipe/leadpipe/pkg/models"
)

const defaultTimeout = 60 * time.Second

// VoiceNode places an outbound call to the lead, reading the outbound message
// as the call script. It only runs for campaigns that declared the voice
// channel.
type VoiceNode struct {
	provider delivery.Provider
	timeout  time.Duration
	logger   *slog.Logger
}

func NewVoiceNode(provider delivery.Provider, config map[string]any) (*VoiceNode, error) {
	if provider == nil {
		return nil, errors.New("delivery provider is required")
	}

	node := &VoiceNode{
		provider: provider,
		timeout:  defaultTimeout,
		logger:   slog.Default().With("module", "node", "node_type", "voice"),
	}

	if seconds, ok := config["timeout_seconds"].(float64); ok {
		if seconds <= 0 {
			return nil, fmt.Errorf("invalid timeout_seconds %v", seconds)
		}

		node.timeout = time.Duration(seconds * float64(time.Second))
	}

	return node, nil
}

func (n *VoiceNode) Type() string {
	return "voice"
}

func (n *VoiceNode) Run(ctx context.Context, state *models.ExecutionState) error {
	if state.Validated() && !state.ValidationPassed() {
		state.AppendLog(models.LogLevelInfo, n.Type(), "skipped: lead failed validation", nil)

		return nil
	}

	if !state.Channels.Has(models.ChannelVoice) {
		state.AppendLog(models.LogLevelInfo, n.Type(), "skipped: campaign does not use the voice channel", nil)

		return nil
	}

	state.AppendLog(models.LogLevelInfo, n.Type(), "voice call started", map[string]any{"to": state.Lead.Phone})

	callCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	receipt, err := n.provider.Send(callCtx, delivery.Request{
		Channel: models.ChannelVoice,
		Address: state.Lead.Phone,
		Message: state.OutboundMessage(),
		LeadID:  state.LeadID,
	})
	if err != nil {
		return engine.NewDeliveryError(models.ChannelVoice, state.Lead.Phone, err)
	}

	if !receipt.Accepted {
		state.RecordFailure(models.FailureDelivery, fmt.Sprintf("Voice: rejected by provider (%s)", receipt.Response))
		state.AppendLog(models.LogLevelError, n.Type(), "voice call rejected", map[string]any{
			"response": receipt.Response,
		})

		return nil
	}

	state.MarkVoiceCall(receipt.ProviderRef)
	state.AppendTranscript(models.TranscriptEntry{
		Role:      models.MessageRoleTool,
		AgentRole: callerRole(state),
		Content:   "voice call placed",
		Metadata: map[string]any{
			"channel": string(models.ChannelVoice),
			"call_id": receipt.ProviderRef,
		},
	})
	state.AppendLog(models.LogLevelInfo, n.Type(), "voice call finished", map[string]any{
		"call_id": receipt.ProviderRef,
	})
	n.logger.DebugContext(ctx, "voice call placed", "lead_id", state.LeadID, "call_id", receipt.ProviderRef)

	return nil
}

func callerRole(state *models.ExecutionState) string {
	if config := state.Roles.DeterministicConfig(); config != nil {
		return config.Role
	}

	return models.RoleDeterministic
}
