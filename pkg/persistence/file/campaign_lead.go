package file

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/getleadpipe/leadpipe/pkg/models"
)

// CampaignLeadRepository handles per-lead run record file operations.
type CampaignLeadRepository struct {
	root string
}

func NewCampaignLeadRepository(root string) *CampaignLeadRepository {
	return &CampaignLeadRepository{root: root}
}

func (r *CampaignLeadRepository) dir() string {
	return path.Join(r.root, "campaign_leads")
}

// ListByCampaign returns a campaign's lead records in attach order, which is
// the order the batch coordinator processes them in.
func (r *CampaignLeadRepository) ListByCampaign(ctx context.Context, campaignID string) ([]*models.CampaignLead, error) {
	jsonFiles, err := fs.Glob(os.DirFS(r.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign lead files: %w", err)
	}

	records := make([]*models.CampaignLead, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		record, err := r.GetByID(ctx, file[:len(file)-5])
		if err != nil {
			return nil, err
		}

		if record != nil && record.CampaignID == campaignID {
			records = append(records, record)
		}
	}

	// tie-break equal attach timestamps on ID so the order never depends on
	// directory listing order
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}

		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	return records, nil
}

// ListPending returns the campaign's still-unprocessed lead records in attach
// order.
func (r *CampaignLeadRepository) ListPending(ctx context.Context, campaignID string) ([]*models.CampaignLead, error) {
	records, err := r.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	pending := make([]*models.CampaignLead, 0, len(records))

	for _, record := range records {
		if record.Status == models.LeadStatusPending {
			pending = append(pending, record)
		}
	}

	return pending, nil
}

// GetByID retrieves one record by its ID. Returns (nil, nil) when missing.
func (r *CampaignLeadRepository) GetByID(_ context.Context, id string) (*models.CampaignLead, error) {
	var record models.CampaignLead

	found, err := readJSON(path.Join(r.dir(), id+".json"), &record)
	if err != nil || !found {
		return nil, err
	}

	return &record, nil
}

// Save stores one record, assigning an ID and timestamps on first save.
func (r *CampaignLeadRepository) Save(_ context.Context, record *models.CampaignLead) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}

	record.UpdatedAt = now

	return writeJSON(r.dir(), record.ID+".json", record)
}
