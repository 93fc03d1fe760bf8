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

// LeadRepository handles lead file operations.
type LeadRepository struct {
	root string
}

func NewLeadRepository(root string) *LeadRepository {
	return &LeadRepository{root: root}
}

func (r *LeadRepository) dir() string {
	return path.Join(r.root, "leads")
}

// List returns all leads, newest first.
func (r *LeadRepository) List(ctx context.Context) ([]*models.Lead, error) {
	jsonFiles, err := fs.Glob(os.DirFS(r.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list lead files: %w", err)
	}

	leads := make([]*models.Lead, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		lead, err := r.GetByID(ctx, file[:len(file)-5])
		if err != nil {
			return nil, err
		}

		if lead != nil {
			leads = append(leads, lead)
		}
	}

	sort.Slice(leads, func(i, j int) bool {
		return leads[i].CreatedAt.After(leads[j].CreatedAt)
	})

	return leads, nil
}

// GetByID retrieves a lead by its ID. Returns (nil, nil) when missing.
func (r *LeadRepository) GetByID(_ context.Context, id string) (*models.Lead, error) {
	var lead models.Lead

	found, err := readJSON(path.Join(r.dir(), id+".json"), &lead)
	if err != nil || !found {
		return nil, err
	}

	return &lead, nil
}

// Save stores a lead, assigning an ID and timestamps on first save.
func (r *LeadRepository) Save(_ context.Context, lead *models.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}

	lead.UpdatedAt = now

	return writeJSON(r.dir(), lead.ID+".json", lead)
}

// Delete removes a lead document. Missing documents are not an error.
func (r *LeadRepository) Delete(_ context.Context, id string) error {
	return removeJSON(path.Join(r.dir(), id+".json"))
}
