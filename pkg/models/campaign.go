package models

import (
	"math"
	"time"
)

// CampaignStatus represents the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignStatusDraft      CampaignStatus = "draft"
	CampaignStatusPending    CampaignStatus = "pending"
	CampaignStatusProcessing CampaignStatus = "processing"
	CampaignStatusCompleted  CampaignStatus = "completed"
	CampaignStatusFailed     CampaignStatus = "failed"
	CampaignStatusPaused     CampaignStatus = "paused"
)

// Campaign is a configured batch of leads sharing one workflow configuration.
type Campaign struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"               validate:"required,min=3"`
	Description string           `json:"description,omitempty"`
	Status      CampaignStatus   `json:"status"             validate:"required"`
	Channels    ChannelSet       `json:"channels"           validate:"required,min=1"`
	Roles       AgentRoles       `json:"roles"`
	Graph       *GraphDefinition `json:"graph,omitempty"`
	Schedule    string           `json:"schedule,omitempty"`
	Stats       CampaignStats    `json:"stats"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	DeletedAt   *time.Time       `json:"deleted_at,omitempty"`
}

// Startable reports whether a run may be requested for the campaign's
// current status. Processing campaigns must not be started twice; completed
// ones have nothing left to do.
func (c *Campaign) Startable() bool {
	switch c.Status {
	case CampaignStatusDraft, CampaignStatusPending, CampaignStatusPaused:
		return true
	default:
		return false
	}
}

// CampaignStats holds the campaign's aggregate counters. They are updated
// incrementally by the batch coordinator under a single-writer discipline,
// never recomputed by rescanning lead rows.
type CampaignStats struct {
	TotalLeads         int     `json:"total_leads"`
	Pending            int     `json:"pending"`
	Processing         int     `json:"processing"`
	Completed          int     `json:"completed"`
	Failed             int     `json:"failed"`
	Sent               int     `json:"sent"`
	GenerationFailures int     `json:"generation_failures"`
	DeliveryFailures   int     `json:"delivery_failures"`
	SuccessRate        float64 `json:"success_rate"`
}

// LeadAttached accounts for a new lead joining the campaign in pending state.
func (s *CampaignStats) LeadAttached() {
	s.TotalLeads++
	s.Pending++
	s.refreshRate()
}

// LeadStarted moves one lead from pending to processing.
func (s *CampaignStats) LeadStarted() {
	if s.Pending > 0 {
		s.Pending--
	}

	s.Processing++
}

// LeadFinished applies one lead's terminal result to the counters.
func (s *CampaignStats) LeadFinished(result *CampaignLead) {
	if s.Processing > 0 {
		s.Processing--
	}

	switch result.Status {
	case LeadStatusCompleted:
		s.Completed++
	default:
		s.Failed++
	}

	if result.Sent {
		s.Sent++
	}

	switch result.FailureKind {
	case FailureGeneration:
		s.GenerationFailures++
	case FailureDelivery:
		s.DeliveryFailures++
	}

	s.refreshRate()
}

func (s *CampaignStats) refreshRate() {
	if s.TotalLeads == 0 {
		s.SuccessRate = 0

		return
	}

	rate := float64(s.Completed) / float64(s.TotalLeads) * 100

	s.SuccessRate = math.Round(rate*100) / 100
}
