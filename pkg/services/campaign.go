package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/getleadpipe/leadpipe/pkg/engine"
	"github.com/getleadpipe/leadpipe/pkg/eventbus"
	"github.com/getleadpipe/leadpipe/pkg/events"
	"github.com/getleadpipe/leadpipe/pkg/models"
	"github.com/getleadpipe/leadpipe/pkg/persistence"
	"github.com/getleadpipe/leadpipe/pkg/registry"
)

// ErrCampaignNotFound is returned when a campaign is not found.
var ErrCampaignNotFound = persistence.ErrCampaignNotFound

// Campaign is the service behind the campaign API surface: CRUD-lite
// operations, lead attachment, and the start/pause/resume lifecycle that
// feeds the batch runner through the event bus.
type Campaign struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
}

// NewCampaign creates a new campaign service.
func NewCampaign(persistence persistence.Persistence, registry *registry.Registry, eventBus eventbus.EventBus) *Campaign {
	return &Campaign{
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Campaign) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List retrieves all campaigns.
func (s *Campaign) List(ctx context.Context) ([]*models.Campaign, error) {
	campaigns, err := s.persistence.Campaigns().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	return campaigns, nil
}

// FetchByID retrieves a campaign by its ID.
func (s *Campaign) FetchByID(ctx context.Context, id string) (*models.Campaign, error) {
	campaign, err := s.persistence.Campaigns().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if campaign == nil {
		return nil, ErrCampaignNotFound
	}

	return campaign, nil
}

// Create adds a new campaign in draft status. The channel set, role variant,
// schedule expression, and any stored graph definition are checked here, so a
// campaign that saves is a campaign a batch can run.
func (s *Campaign) Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	if campaign == nil {
		return nil, ErrCampaignNil
	}

	if err := campaign.Channels.Validate(); err != nil {
		return nil, NewValidationError("Campaign.Create", "INVALID_CHANNELS", err.Error(), ErrInvalidChannels)
	}

	if err := campaign.Roles.Validate(); err != nil {
		return nil, NewValidationError("Campaign.Create", "INVALID_ROLES", err.Error(), ErrInvalidRoles)
	}

	if campaign.Schedule != "" {
		if _, err := cron.ParseStandard(campaign.Schedule); err != nil {
			return nil, NewValidationError("Campaign.Create", "INVALID_SCHEDULE", err.Error(), ErrInvalidSchedule)
		}
	}

	// A broken dynamic definition is rejected at create time, not discovered
	// when the first batch tries to compile it.
	if _, err := engine.SpecForCampaign(campaign, s.registry); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	campaign.ID = uuid.New().String()
	campaign.CreatedAt = now
	campaign.UpdatedAt = now
	campaign.Stats = models.CampaignStats{}

	if campaign.Status == "" {
		campaign.Status = models.CampaignStatusDraft
	}

	if err := s.persistence.Campaigns().Save(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	return campaign, nil
}

// Delete removes a campaign by its ID. A processing campaign cannot be
// deleted; pause it first so the batch stops at the next lead boundary.
func (s *Campaign) Delete(ctx context.Context, campaignID string) error {
	existing, err := s.persistence.Campaigns().GetByID(ctx, campaignID)
	if err != nil {
		return err
	}

	if existing == nil {
		return ErrCampaignNotFound
	}

	if existing.Status == models.CampaignStatusProcessing {
		return ErrCampaignProcessing
	}

	if err := s.persistence.Campaigns().Delete(ctx, campaignID); err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}

	return nil
}

// AttachLead adds a lead to the campaign as a pending record and accounts for
// it in the campaign's counters.
func (s *Campaign) AttachLead(ctx context.Context, campaignID, leadID string) (*models.CampaignLead, error) {
	campaign, err := s.FetchByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	lead, err := s.persistence.Leads().GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	if lead == nil {
		return nil, persistence.ErrLeadNotFound
	}

	attached, err := s.persistence.CampaignLeads().ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign leads: %w", err)
	}

	for _, record := range attached {
		if record.LeadID == leadID {
			return nil, ErrLeadAlreadyAttached
		}
	}

	record := &models.CampaignLead{
		CampaignID: campaignID,
		LeadID:     leadID,
		Status:     models.LeadStatusPending,
	}

	if err := s.persistence.CampaignLeads().Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to attach lead: %w", err)
	}

	campaign.Stats.LeadAttached()
	campaign.UpdatedAt = time.Now().UTC()

	if err := s.persistence.Campaigns().Save(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign stats: %w", err)
	}

	return record, nil
}

// Leads returns the campaign's per-lead records in attach order.
func (s *Campaign) Leads(ctx context.Context, campaignID string) ([]*models.CampaignLead, error) {
	if _, err := s.FetchByID(ctx, campaignID); err != nil {
		return nil, err
	}

	records, err := s.persistence.CampaignLeads().ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign leads: %w", err)
	}

	return records, nil
}

// CampaignResults is the campaign result view: aggregate stats plus every
// lead's terminal record, error message included.
type CampaignResults struct {
	Campaign *models.Campaign       `json:"campaign"`
	Stats    models.CampaignStats   `json:"stats"`
	Leads    []*models.CampaignLead `json:"leads"`
}

// Results assembles the campaign's result view.
func (s *Campaign) Results(ctx context.Context, campaignID string) (*CampaignResults, error) {
	campaign, err := s.FetchByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	records, err := s.persistence.CampaignLeads().ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign leads: %w", err)
	}

	return &CampaignResults{
		Campaign: campaign,
		Stats:    campaign.Stats,
		Leads:    records,
	}, nil
}

// Compile resolves the graph the campaign would run. For a dynamic campaign
// this compiles the stored definition; an invalid definition comes back as a
// GraphConfigError naming the offending node or edge.
func (s *Campaign) Compile(ctx context.Context, campaignID string) (*engine.GraphSpec, error) {
	campaign, err := s.FetchByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	return engine.SpecForCampaign(campaign, s.registry)
}

// Start requests a batch run for the campaign. The graph is compile-checked
// first: a campaign with a broken dynamic definition never leaves its
// pre-start status. On success a run request is published for the runner;
// the status transition to processing happens in the batch coordinator.
func (s *Campaign) Start(ctx context.Context, campaignID, requestedBy string) (*models.Campaign, error) {
	campaign, err := s.FetchByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	if !campaign.Startable() {
		return nil, fmt.Errorf("campaign %s is %s: %w", campaignID, campaign.Status, ErrCampaignNotStartable)
	}

	if _, err := engine.SpecForCampaign(campaign, s.registry); err != nil {
		return nil, err
	}

	if campaign.Status == models.CampaignStatusDraft {
		campaign.Status = models.CampaignStatusPending
		campaign.UpdatedAt = time.Now().UTC()

		if err := s.persistence.Campaigns().Save(ctx, campaign); err != nil {
			return nil, fmt.Errorf("failed to update campaign: %w", err)
		}
	}

	if err := s.publishRunRequested(ctx, campaignID, "api", requestedBy); err != nil {
		return nil, err
	}

	return campaign, nil
}

// Pause asks the running batch to stop at the next lead boundary. The lead in
// flight finishes; the rest stay pending.
func (s *Campaign) Pause(ctx context.Context, campaignID string) (*models.Campaign, error) {
	campaign, err := s.FetchByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	if campaign.Status != models.CampaignStatusProcessing {
		return nil, fmt.Errorf("campaign %s is %s: %w", campaignID, campaign.Status, ErrCampaignNotPausable)
	}

	campaign.Status = models.CampaignStatusPaused
	campaign.UpdatedAt = time.Now().UTC()

	if err := s.persistence.Campaigns().Save(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to pause campaign: %w", err)
	}

	return campaign, nil
}

// Resume requests a new batch for a paused campaign; only still-pending leads
// are reprocessed.
func (s *Campaign) Resume(ctx context.Context, campaignID, requestedBy string) (*models.Campaign, error) {
	campaign, err := s.FetchByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	if campaign.Status != models.CampaignStatusPaused {
		return nil, fmt.Errorf("campaign %s is %s: %w", campaignID, campaign.Status, ErrCampaignNotResumable)
	}

	if err := s.publishRunRequested(ctx, campaignID, "api", requestedBy); err != nil {
		return nil, err
	}

	return campaign, nil
}

func (s *Campaign) publishRunRequested(ctx context.Context, campaignID, source, requestedBy string) error {
	event := events.CampaignRunRequested{
		BaseEvent:   events.NewBaseEvent(events.CampaignRunRequestedEvent, campaignID),
		Source:      source,
		RequestedBy: requestedBy,
	}

	if err := s.eventBus.Publish(ctx, campaignID, event); err != nil {
		return fmt.Errorf("failed to publish run request: %w", err)
	}

	return nil
}
