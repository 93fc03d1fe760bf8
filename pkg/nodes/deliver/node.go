// Package deliver implements the deterministic SMS delivery node.
package deliver

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

const defaultTimeout = 30 * time.Second

// DeliverNode sends the outbound message over SMS. A transport error aborts
// the run; a provider rejection is recorded on the state and routing
// continues, so graphs can retry or fall through to finalize.
type DeliverNode struct {
	provider delivery.Provider
	timeout  time.Duration
	logger   *slog.Logger
}

func NewDeliverNode(provider delivery.Provider, config map[string]any) (*DeliverNode, error) {
	if provider == nil {
		return nil, errors.New("delivery provider is required")
	}

	node := &DeliverNode{
		provider: provider,
		timeout:  defaultTimeout,
		logger:   slog.Default().With("module", "node", "node_type", "deliver"),
	}

	if seconds, ok := config["timeout_seconds"].(float64); ok {
		if seconds <= 0 {
			return nil, fmt.Errorf("invalid timeout_seconds %v", seconds)
		}

		node.timeout = time.Duration(seconds * float64(time.Second))
	}

	return node, nil
}

func (n *DeliverNode) Type() string {
	return "deliver"
}

func (n *DeliverNode) Run(ctx context.Context, state *models.ExecutionState) error {
	if state.Validated() && !state.ValidationPassed() {
		state.AppendLog(models.LogLevelInfo, n.Type(), "skipped: lead failed validation", nil)

		return nil
	}

	message := state.OutboundMessage()
	if message == "" {
		return engine.NewDeliveryError(models.ChannelSMS, state.Lead.Phone, errors.New("no message to deliver"))
	}

	state.AppendLog(models.LogLevelInfo, n.Type(), "delivery started", map[string]any{"to": state.Lead.Phone})

	callCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	receipt, err := n.provider.Send(callCtx, delivery.Request{
		Channel: models.ChannelSMS,
		Address: state.Lead.Phone,
		Message: message,
		LeadID:  state.LeadID,
	})
	if err != nil {
		return engine.NewDeliveryError(models.ChannelSMS, state.Lead.Phone, err)
	}

	if !receipt.Accepted {
		state.RecordFailure(models.FailureDelivery, fmt.Sprintf("SMS: rejected by provider (%s)", receipt.Response))
		state.AppendLog(models.LogLevelError, n.Type(), "delivery rejected", map[string]any{
			"response": receipt.Response,
		})

		return nil
	}

	state.MarkSent(receipt.ProviderRef)
	state.AppendTranscript(models.TranscriptEntry{
		Role:      models.MessageRoleTool,
		AgentRole: senderRole(state),
		Content:   message,
		Metadata: map[string]any{
			"channel":      string(models.ChannelSMS),
			"provider_ref": receipt.ProviderRef,
		},
	})
	state.AppendLog(models.LogLevelInfo, n.Type(), "delivery finished", map[string]any{
		"provider_ref": receipt.ProviderRef,
	})
	n.logger.DebugContext(ctx, "sms delivered", "lead_id", state.LeadID, "provider_ref", receipt.ProviderRef)

	return nil
}

func senderRole(state *models.ExecutionState) string {
	if config := state.Roles.DeterministicConfig(); config != nil {
		return config.Role
	}

	return models.RoleDeterministic
}
