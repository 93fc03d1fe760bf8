package file

import (
	"context"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/getleadpipe/leadpipe/pkg/models"
)

// ProcessingLogRepository stores each campaign lead's engine log as one JSON
// array document.
type ProcessingLogRepository struct {
	root string
}

func NewProcessingLogRepository(root string) *ProcessingLogRepository {
	return &ProcessingLogRepository{root: root}
}

func (r *ProcessingLogRepository) dir() string {
	return path.Join(r.root, "processing_logs")
}

// Append adds log entries to their campaign lead's document, assigning IDs
// and timestamps where missing.
func (r *ProcessingLogRepository) Append(_ context.Context, entries []*models.ProcessingLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	byLead := make(map[string][]*models.ProcessingLogEntry)

	for _, entry := range entries {
		if entry.ID == "" {
			entry.ID = uuid.New().String()
		}

		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now().UTC()
		}

		byLead[entry.CampaignLeadID] = append(byLead[entry.CampaignLeadID], entry)
	}

	for campaignLeadID, group := range byLead {
		filePath := path.Join(r.dir(), campaignLeadID+".json")

		var existing []*models.ProcessingLogEntry
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

// ListByCampaignLead returns the stored log in append order. Missing
// documents yield an empty slice.
func (r *ProcessingLogRepository) ListByCampaignLead(_ context.Context, campaignLeadID string) ([]*models.ProcessingLogEntry, error) {
	var entries []*models.ProcessingLogEntry

	if _, err := readJSON(path.Join(r.dir(), campaignLeadID+".json"), &entries); err != nil {
		return nil, err
	}

	if entries == nil {
		entries = make([]*models.ProcessingLogEntry, 0)
	}

	return entries, nil
}
