package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) *ExecutionState {
	t.Helper()

	campaign := &Campaign{
		ID:       "campaign-1",
		Name:     "Spring Outreach",
		Status:   CampaignStatusProcessing,
		Channels: NewChannelSet(ChannelVoice, ChannelSMS),
		Roles: SingleRole(AgentConfig{
			SystemPrompt: "You are an outreach assistant.",
			Model:        "gpt-4o-mini",
			Temperature:  0.7,
		}),
	}
	lead := &Lead{
		ID:      "lead-1",
		Name:    "Dana Cruz",
		Phone:   "+15550100",
		Email:   "dana@example.com",
		Company: "Acme",
	}
	campaignLead := &CampaignLead{ID: "cl-1", CampaignID: campaign.ID, LeadID: lead.ID}

	return NewExecutionState(campaign, campaignLead, lead)
}

func TestNewExecutionState_SnapshotsLeadAndOrdersChannels(t *testing.T) {
	state := newTestState(t)

	assert.Equal(t, "cl-1", state.CampaignLeadID)
	assert.Equal(t, "campaign-1", state.CampaignID)
	assert.Equal(t, "lead-1", state.LeadID)
	assert.Equal(t, "Dana Cruz", state.Lead.Name)
	assert.Equal(t, "+15550100", state.Lead.Phone)
	assert.Equal(t, LeadStatusPending, state.Status())

	// Declared voice-first, executed sms-first.
	assert.Equal(t, ChannelSet{ChannelSMS, ChannelVoice}, state.Channels)
}

func TestExecutionState_StatusTransitions(t *testing.T) {
	state := newTestState(t)

	require.Error(t, state.MarkCompleted(), "completing a pending lead must be rejected")

	require.NoError(t, state.MarkProcessing())
	assert.Equal(t, LeadStatusProcessing, state.Status())

	require.Error(t, state.MarkProcessing(), "processing is not re-enterable")

	require.NoError(t, state.MarkCompleted())
	assert.Equal(t, LeadStatusCompleted, state.Status())
	assert.True(t, state.Finalized())

	assert.Error(t, state.MarkFailed("too late"), "terminal status must not change")
	assert.Equal(t, LeadStatusCompleted, state.Status())
}

func TestExecutionState_MarkFailed(t *testing.T) {
	state := newTestState(t)

	require.NoError(t, state.MarkProcessing())
	require.NoError(t, state.MarkFailed("SMS: provider unreachable"))

	assert.Equal(t, LeadStatusFailed, state.Status())
	assert.Equal(t, "SMS: provider unreachable", state.ErrorMessage())
	assert.True(t, state.Finalized())
}

func TestExecutionState_AddCost_Monotonic(t *testing.T) {
	state := newTestState(t)

	state.AddCost(0.002)
	state.AddCost(-1)
	state.AddCost(0)
	state.AddCost(0.0005)

	assert.InDelta(t, 0.0025, state.Cost(), 1e-9)
}

func TestExecutionState_TranscriptAppendOnly(t *testing.T) {
	state := newTestState(t)

	state.AppendTranscript(TranscriptEntry{Role: MessageRoleSystem, Content: "prompt"})
	state.AppendTranscript(TranscriptEntry{Role: MessageRoleAssistant, AgentRole: RoleAgent, Content: "draft"})

	got := state.Transcript()
	require.Len(t, got, 2)

	// Mutating the returned slice must not reach the state.
	got[0].Content = "tampered"
	got = append(got, TranscriptEntry{Role: MessageRoleTool})

	fresh := state.Transcript()
	require.Len(t, fresh, 2)
	assert.Equal(t, "prompt", fresh[0].Content)
}

func TestExecutionState_SetValidation_CopiesErrors(t *testing.T) {
	state := newTestState(t)

	errs := []string{"phone required"}
	state.SetValidation(false, errs)
	errs[0] = "tampered"

	assert.True(t, state.Validated())
	assert.False(t, state.ValidationPassed())
	assert.Equal(t, []string{"phone required"}, state.ValidationErrors())
}

func TestExecutionState_OutboundMessage_PrefersHandoffDraft(t *testing.T) {
	state := newTestState(t)

	state.SetMessage("generated draft")
	assert.Equal(t, "generated draft", state.OutboundMessage())
	assert.False(t, state.HandoffDone())

	state.SetDeterministicInput("generated draft, reviewed")
	assert.True(t, state.HandoffDone())
	assert.Equal(t, "generated draft, reviewed", state.OutboundMessage())
}

func TestExecutionState_RecordFailure(t *testing.T) {
	state := newTestState(t)

	assert.Equal(t, FailureNone, state.FailureKind())

	state.RecordFailure(FailureGeneration, "model timed out")
	state.RecordFailure(FailureDelivery, "Voice: line busy")

	require.Len(t, state.Failures(), 2)
	assert.Equal(t, FailureGeneration, state.FailureKind(), "first failure drives the stats bucket")
}
