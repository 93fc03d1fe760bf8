// Package finalize implements the terminal node of every campaign graph. It
// decides the lead's terminal status and persists the accumulated transcript
// and processing log.
package finalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/getleadpipe/leadpipe/pkg/models"
)

// Sink receives the run's accumulated conversation and processing log when
// the run finalizes. It runs for completed and failed leads alike.
type Sink interface {
	AppendConversation(ctx context.Context, campaignLeadID string, entries []models.TranscriptEntry) error
	AppendProcessingLog(ctx context.Context, campaignLeadID string, entries []models.RunLogEntry) error
}

// FinalizeNode closes a lead's run. Completion requires passed validation,
// every declared channel satisfied, and no recorded failures; anything else
// is a failure with the joined failure messages as the error.
type FinalizeNode struct {
	sink   Sink
	logger *slog.Logger
}

func NewFinalizeNode(sink Sink, config map[string]any) (*FinalizeNode, error) {
	if sink == nil {
		return nil, errors.New("finalize sink is required")
	}

	return &FinalizeNode{
		sink:   sink,
		logger: slog.Default().With("module", "node", "node_type", "finalize"),
	}, nil
}

func (n *FinalizeNode) Type() string {
	return "finalize"
}

func (n *FinalizeNode) Run(ctx context.Context, state *models.ExecutionState) error {
	passed := state.ValidationPassed()

	switch {
	case !state.Validated():
		state.RecordFailure(models.FailureValidation, "validation did not run")
	case !passed:
		state.RecordFailure(models.FailureValidation,
			"validation failed: "+strings.Join(state.ValidationErrors(), "; "))
	}

	smsPending := state.Channels.Has(models.ChannelSMS) && !state.Sent()
	voicePending := state.Channels.Has(models.ChannelVoice) && !state.VoiceCallMade()

	if passed && len(state.Failures()) == 0 {
		if smsPending {
			state.RecordFailure(models.FailureDelivery, "SMS: message was not sent")
		}

		if voicePending {
			state.RecordFailure(models.FailureDelivery, "Voice: call was not made")
		}
	}

	failures := state.Failures()
	completed := passed && len(failures) == 0 && !smsPending && !voicePending

	errorMessage := joinFailures(failures)

	if completed {
		state.AppendLog(models.LogLevelInfo, n.Type(), "lead completed", map[string]any{
			"cost":            state.Cost(),
			"sent":            state.Sent(),
			"voice_call_made": state.VoiceCallMade(),
		})
	} else {
		state.AppendLog(models.LogLevelError, n.Type(), "lead failed: "+errorMessage, map[string]any{
			"failure_kind": string(state.FailureKind()),
		})
	}

	if err := n.flush(ctx, state); err != nil {
		return err
	}

	if completed {
		if err := state.MarkCompleted(); err != nil {
			return fmt.Errorf("marking lead completed: %w", err)
		}
	} else if err := state.MarkFailed(errorMessage); err != nil {
		return fmt.Errorf("marking lead failed: %w", err)
	}

	n.logger.DebugContext(ctx, "run finalized",
		"lead_id", state.LeadID, "status", string(state.Status()))

	return nil
}

func (n *FinalizeNode) flush(ctx context.Context, state *models.ExecutionState) error {
	if transcript := state.Transcript(); len(transcript) > 0 {
		if err := n.sink.AppendConversation(ctx, state.CampaignLeadID, transcript); err != nil {
			return fmt.Errorf("persisting conversation: %w", err)
		}
	}

	if logs := state.Logs(); len(logs) > 0 {
		if err := n.sink.AppendProcessingLog(ctx, state.CampaignLeadID, logs); err != nil {
			return fmt.Errorf("persisting processing log: %w", err)
		}
	}

	return nil
}

func joinFailures(failures []models.FailureRecord) string {
	if len(failures) == 0 {
		return ""
	}

	parts := make([]string, 0, len(failures))
	for _, failure := range failures {
		parts = append(parts, failure.Message)
	}

	return strings.Join(parts, "; ")
}
