package models

import "time"

// LeadStatus represents one lead's progress through a campaign.
type LeadStatus string

const (
	LeadStatusPending    LeadStatus = "pending"
	LeadStatusProcessing LeadStatus = "processing"
	LeadStatusCompleted  LeadStatus = "completed"
	LeadStatusFailed     LeadStatus = "failed"
)

// FailureKind classifies what broke a lead's run, for stats and triage.
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureValidation FailureKind = "validation"
	FailureGeneration FailureKind = "generation"
	FailureDelivery   FailureKind = "delivery"
	FailureOverrun    FailureKind = "overrun"
	FailureInternal   FailureKind = "internal"
)

// CampaignLead is the per-lead result record for one campaign membership.
type CampaignLead struct {
	ID               string      `json:"id"`
	CampaignID       string      `json:"campaign_id" validate:"required"`
	LeadID           string      `json:"lead_id"     validate:"required"`
	Status           LeadStatus  `json:"status"`
	Sent             bool        `json:"sent"`
	Message          string      `json:"message,omitempty"`
	DeliveryResponse string      `json:"delivery_response,omitempty"`
	VoiceCallMade    bool        `json:"voice_call_made"`
	VoiceCallID      string      `json:"voice_call_id,omitempty"`
	FailureKind      FailureKind `json:"failure_kind,omitempty"`
	ErrorMessage     string      `json:"error_message,omitempty"`
	TraceID          string      `json:"trace_id,omitempty"`
	Cost             float64     `json:"cost"`
	ProcessedAt      *time.Time  `json:"processed_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}
