package queue

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getleadpipe/leadpipe/pkg/protocol"
)

func TestNewTrigger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	tests := []struct {
		name          string
		config        map[string]any
		expectedQueue string
	}{
		{
			name: "explicit queue and connection",
			config: map[string]any{
				"queue": "custom:runs",
				"connection": map[string]any{
					"addr":     "localhost:6379",
					"password": "",
					"db":       "0",
				},
			},
			expectedQueue: "custom:runs",
		},
		{
			name:          "defaults apply",
			config:        map[string]any{},
			expectedQueue: DefaultQueue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger, err := NewTrigger(tt.config, logger)
			require.NoError(t, err)
			require.NotNil(t, trigger)
			assert.Equal(t, tt.expectedQueue, trigger.Queue)
			assert.True(t, trigger.Enabled)
		})
	}
}

func TestTrigger_Validate(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	trigger, err := NewTrigger(map[string]any{"queue": "leads"}, logger)
	require.NoError(t, err)
	assert.NoError(t, trigger.Validate())

	trigger.Queue = ""
	assert.Error(t, trigger.Validate())
}

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name        string
		message     string
		expectError bool
		campaignID  string
	}{
		{
			name:       "bare campaign id",
			message:    "campaign-123",
			campaignID: "campaign-123",
		},
		{
			name:       "json with campaign id",
			message:    `{"campaign_id":"campaign-456","requested_by":"ops"}`,
			campaignID: "campaign-456",
		},
		{
			name:        "json without campaign id",
			message:     `{"other":"field"}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := decodeMessage(tt.message)

			if tt.expectError {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.campaignID, data[protocol.CampaignIDKey])
			assert.Contains(t, data, "timestamp")
		})
	}
}

func TestDecodeMessage_PreservesExtraFields(t *testing.T) {
	data, err := decodeMessage(`{"campaign_id":"c-1","requested_by":"ops"}`)
	require.NoError(t, err)
	assert.Equal(t, "ops", data["requested_by"])
}

func TestFactory_Create(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	factory := NewFactory()

	assert.Equal(t, "queue", factory.ID())

	_, err := factory.Create(nil, logger)
	assert.ErrorIs(t, err, ErrConfigNil)

	trigger, err := factory.Create(map[string]any{"queue": "leads"}, logger)
	require.NoError(t, err)
	assert.NotNil(t, trigger)

	var _ protocol.Trigger = trigger
}
