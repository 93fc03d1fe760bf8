package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/getleadpipe/leadpipe/pkg/models"
	"github.com/getleadpipe/leadpipe/pkg/persistence"
)

// ErrLeadNotFound is returned when a lead is not found.
var ErrLeadNotFound = persistence.ErrLeadNotFound

// Lead is the service behind the lead API surface.
type Lead struct {
	persistence persistence.Persistence
}

// NewLead creates a new lead service.
func NewLead(persistence persistence.Persistence) *Lead {
	return &Lead{persistence: persistence}
}

// List retrieves all leads.
func (s *Lead) List(ctx context.Context) ([]*models.Lead, error) {
	leads, err := s.persistence.Leads().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	return leads, nil
}

// FetchByID retrieves a lead by its ID.
func (s *Lead) FetchByID(ctx context.Context, id string) (*models.Lead, error) {
	lead, err := s.persistence.Leads().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if lead == nil {
		return nil, ErrLeadNotFound
	}

	return lead, nil
}

// Create adds a new lead to the repository.
func (s *Lead) Create(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	if lead == nil {
		return nil, ErrLeadNil
	}

	now := time.Now().UTC()
	lead.ID = uuid.New().String()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	if err := s.persistence.Leads().Save(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	return lead, nil
}

// Update modifies an existing lead by its ID.
func (s *Lead) Update(ctx context.Context, leadID string, lead *models.Lead) (*models.Lead, error) {
	existing, err := s.persistence.Leads().GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		return nil, ErrLeadNotFound
	}

	lead.ID = leadID
	lead.CreatedAt = existing.CreatedAt
	lead.UpdatedAt = time.Now().UTC()

	if err := s.persistence.Leads().Save(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}

	return lead, nil
}

// Delete removes a lead by its ID.
func (s *Lead) Delete(ctx context.Context, leadID string) error {
	existing, err := s.persistence.Leads().GetByID(ctx, leadID)
	if err != nil {
		return err
	}

	if existing == nil {
		return ErrLeadNotFound
	}

	if err := s.persistence.Leads().Delete(ctx, leadID); err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}

	return nil
}
