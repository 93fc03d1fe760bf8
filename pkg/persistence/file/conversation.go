package file

import (
	"context"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/getleadpipe/leadpipe/pkg/models"
)

// ConversationRepository stores each campaign lead's transcript as one JSON
// array document, appended to as runs finalize.
type ConversationRepository struct {
	root string
}

func NewConversationRepository(root string) *ConversationRepository {
	return &ConversationRepository{root: root}
}

func (r *ConversationRepository) dir() string {
	return path.Join(r.root, "conversations")
}

// Append adds messages to their campaign lead's transcript document,
// assigning IDs and timestamps where missing.
func (r *ConversationRepository) Append(_ context.Context, messages []*models.ConversationMessage) error {
	if len(messages) == 0 {
		return nil
	}

	byLead := make(map[string][]*models.ConversationMessage)

	for _, message := range messages {
		if message.ID == "" {
			message.ID = uuid.New().String()
		}

		if message.CreatedAt.IsZero() {
			message.CreatedAt = time.Now().UTC()
		}

		byLead[message.CampaignLeadID] = append(byLead[message.CampaignLeadID], message)
	}

	for campaignLeadID, group := range byLead {
		filePath := path.Join(r.dir(), campaignLeadID+".json")

		var existing []*models.ConversationMessage
		if _, err := readJSON(filePath, &existing); err != nil {
			return err
		}

		existing = append(existing, group...)

		if err := writeJSON(r.dir(), campaignLeadID+".json", existing); err != nil {
			return err
		}
	}

	return nil
}

// ListByCampaignLead returns the stored transcript in append order. Missing
// documents yield an empty slice.
func (r *ConversationRepository) ListByCampaignLead(_ context.Context, campaignLeadID string) ([]*models.ConversationMessage, error) {
	var messages []*models.ConversationMessage

	if _, err := readJSON(path.Join(r.dir(), campaignLeadID+".json"), &messages); err != nil {
		return nil, err
	}

	if messages == nil {
		messages = make([]*models.ConversationMessage, 0)
	}

	return messages, nil
}
