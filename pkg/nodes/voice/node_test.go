package voice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getleadpipe/leadpipe/pkg/delivery"
	"github.com/getleadpipe/leadpipe/pkg/engine"
	"github.com/getleadpipe/leadpipe/pkg/models"
)

type stubProvider struct {
	calls   int
	request delivery.Request
	receipt delivery.Receipt
	err     error
}

func (s *stubProvider) Send(ctx context.Context, req delivery.Request) (*delivery.Receipt, error) {
	s.calls++
	s.request = req

	if s.err != nil {
		return nil, s.err
	}

	return &s.receipt, nil
}

func newState(t *testing.T, channels models.ChannelSet) *models.ExecutionState {
	t.Helper()

	campaign := &models.Campaign{
		ID:       "camp-1",
		Name:     "Spring Launch",
		Channels: channels,
		Roles:    models.SingleRole(models.AgentConfig{SystemPrompt: "You are an SDR."}),
	}
	lead := &models.Lead{ID: "lead-1", Name: "Ada Lovelace", Phone: "+14155550100"}
	campaignLead := &models.CampaignLead{ID: "cl-1", CampaignID: campaign.ID, LeadID: lead.ID}

	state := models.NewExecutionState(campaign, campaignLead, lead)
	state.SetValidation(true, nil)
	state.SetMessage("Hi Ada!")

	return state
}

func TestVoiceNode_Run_PlacesCall(t *testing.T) {
	provider := &stubProvider{receipt: delivery.Receipt{
		Accepted:    true,
		ProviderRef: "mock_call_lead-1",
		Response:    "queued",
	}}

	node, err := NewVoiceNode(provider, map[string]any{})
	require.NoError(t, err)

	state := newState(t, models.ChannelSet{models.ChannelSMS, models.ChannelVoice})

	require.NoError(t, node.Run(context.Background(), state))

	assert.Equal(t, models.ChannelVoice, provider.request.Channel)
	assert.True(t, state.VoiceCallMade())
	assert.Equal(t, "mock_call_lead-1", state.VoiceCallID())

	transcript := state.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, "mock_call_lead-1", transcript[0].Metadata["call_id"])
}

func TestVoiceNode_Run_SkipsWithoutVoiceChannel(t *testing.T) {
	provider := &stubProvider{}

	node, err := NewVoiceNode(provider, map[string]any{})
	require.NoError(t, err)

	state := newState(t, models.ChannelSet{models.ChannelSMS})

	require.NoError(t, node.Run(context.Background(), state))

	assert.Zero(t, provider.calls)
	assert.False(t, state.VoiceCallMade())
}

func TestVoiceNode_Run_TransportError(t *testing.T) {
	provider := &stubProvider{err: errors.New("telephony gateway down")}

	node, err := NewVoiceNode(provider, map[string]any{})
	require.NoError(t, err)

	state := newState(t, models.ChannelSet{models.ChannelVoice})

	err = node.Run(context.Background(), state)
	require.Error(t, err)

	var delErr *engine.DeliveryError
	require.ErrorAs(t, err, &delErr)
	assert.Equal(t, models.ChannelVoice, delErr.Channel)
	assert.Contains(t, err.Error(), "voice")
}

func TestVoiceNode_Run_ProviderRejection(t *testing.T) {
	provider := &stubProvider{receipt: delivery.Receipt{Accepted: false, Response: "busy"}}

	node, err := NewVoiceNode(provider, map[string]any{})
	require.NoError(t, err)

	state := newState(t, models.ChannelSet{models.ChannelVoice})

	require.NoError(t, node.Run(context.Background(), state))

	assert.False(t, state.VoiceCallMade())
	require.Len(t, state.Failures(), 1)
	assert.Contains(t, state.Failures()[0].Message, "Voice:")
}
