package batch

import (
	"context"

	"github.com/getleadpipe/leadpipe/pkg/models"
	"github.com/getleadpipe/leadpipe/pkg/persistence"
)

// StoreSink flushes a finished run's transcript and engine log into the
// persistence layer. Production wiring hands it to the finalize node factory.
type StoreSink struct {
	persistence persistence.Persistence
}

func NewStoreSink(p persistence.Persistence) *StoreSink {
	return &StoreSink{persistence: p}
}

func (s *StoreSink) AppendConversation(ctx context.Context, campaignLeadID string, entries []models.TranscriptEntry) error {
	if len(entries) == 0 {
		return nil
	}

	messages := make([]*models.ConversationMessage, 0, len(entries))

	for _, entry := range entries {
		messages = append(messages, &models.ConversationMessage{
			CampaignLeadID: campaignLeadID,
			Role:           entry.Role,
			AgentRole:      entry.AgentRole,
			Content:        entry.Content,
			Metadata:       entry.Metadata,
			CreatedAt:      entry.At,
		})
	}

	return s.persistence.Conversations().Append(ctx, messages)
}

func (s *StoreSink) AppendProcessingLog(ctx context.Context, campaignLeadID string, entries []models.RunLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]*models.ProcessingLogEntry, 0, len(entries))

	for _, entry := range entries {
		rows = append(rows, &models.ProcessingLogEntry{
			CampaignLeadID: campaignLeadID,
			Level:          entry.Level,
			NodeName:       entry.Node,
			Message:        entry.Message,
			Metadata:       entry.Metadata,
			CreatedAt:      entry.At,
		})
	}

	return s.persistence.ProcessingLogs().Append(ctx, rows)
}
