// Package persistence provides the data storage abstraction for campaigns,
// leads, and their per-run records.
package persistence

import (
	"context"

	"github.com/getleadpipe/leadpipe/pkg/models"
)

// Persistence bundles the repositories one storage backend provides.
type Persistence interface {
	Campaigns() CampaignRepository
	Leads() LeadRepository
	CampaignLeads() CampaignLeadRepository
	Conversations() ConversationRepository
	ProcessingLogs() ProcessingLogRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// CampaignRepository stores campaign configurations and their aggregate stats.
// GetByID returns (nil, nil) for an unknown id.
type CampaignRepository interface {
	List(ctx context.Context) ([]*models.Campaign, error)
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	Save(ctx context.Context, campaign *models.Campaign) error
	Delete(ctx context.Context, id string) error
}

// LeadRepository stores contact records. GetByID returns (nil, nil) for an
// unknown id.
type LeadRepository interface {
	List(ctx context.Context) ([]*models.Lead, error)
	GetByID(ctx context.Context, id string) (*models.Lead, error)
	Save(ctx context.Context, lead *models.Lead) error
	Delete(ctx context.Context, id string) error
}

// CampaignLeadRepository stores per-lead run results for campaigns.
type CampaignLeadRepository interface {
	ListByCampaign(ctx context.Context, campaignID string) ([]*models.CampaignLead, error)
	ListPending(ctx context.Context, campaignID string) ([]*models.CampaignLead, error)
	GetByID(ctx context.Context, id string) (*models.CampaignLead, error)
	Save(ctx context.Context, campaignLead *models.CampaignLead) error
}

// ConversationRepository appends and reads the persisted transcript of one
// campaign lead. Entries are append-only.
type ConversationRepository interface {
	Append(ctx context.Context, messages []*models.ConversationMessage) error
	ListByCampaignLead(ctx context.Context, campaignLeadID string) ([]*models.ConversationMessage, error)
}

// ProcessingLogRepository appends and reads the persisted engine log of one
// campaign lead. Entries are append-only.
type ProcessingLogRepository interface {
	Append(ctx context.Context, entries []*models.ProcessingLogEntry) error
	ListByCampaignLead(ctx context.Context, campaignLeadID string) ([]*models.ProcessingLogEntry, error)
}
