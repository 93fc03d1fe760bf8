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

// CampaignRepository handles campaign file operations.
type CampaignRepository struct {
	root string
}

func NewCampaignRepository(root string) *CampaignRepository {
	return &CampaignRepository{root: root}
}

func (r *CampaignRepository) dir() string {
	return path.Join(r.root, "campaigns")
}

// List returns all campaigns, newest first.
func (r *CampaignRepository) List(ctx context.Context) ([]*models.Campaign, error) {
	jsonFiles, err := fs.Glob(os.DirFS(r.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign files: %w", err)
	}

	campaigns := make([]*models.Campaign, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		campaign, err := r.GetByID(ctx, file[:len(file)-5])
		if err != nil {
			return nil, err
		}

		if campaign != nil {
			campaigns = append(campaigns, campaign)
		}
	}

	sort.Slice(campaigns, func(i, j int) bool {
		return campaigns[i].CreatedAt.After(campaigns[j].CreatedAt)
	})

	return campaigns, nil
}

// GetByID retrieves a campaign by its ID. Returns (nil, nil) when missing.
func (r *CampaignRepository) GetByID(_ context.Context, id string) (*models.Campaign, error) {
	var campaign models.Campaign

	found, err := readJSON(path.Join(r.dir(), id+".json"), &campaign)
	if err != nil || !found {
		return nil, err
	}

	return &campaign, nil
}

// Save stores a campaign, assigning an ID and timestamps on first save.
func (r *CampaignRepository) Save(_ context.Context, campaign *models.Campaign) error {
	if campaign.ID == "" {
		campaign.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = now
	}

	campaign.UpdatedAt = now

	return writeJSON(r.dir(), campaign.ID+".json", campaign)
}

// Delete removes a campaign document. Missing documents are not an error.
func (r *CampaignRepository) Delete(_ context.Context, id string) error {
	return removeJSON(path.Join(r.dir(), id+".json"))
}
