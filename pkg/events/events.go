// Package events defines event types for campaign lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/getleadpipe/leadpipe/pkg/models"
)

type EventType string

// Topic carries all campaign lifecycle events.
const Topic = "leadpipe.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// CampaignRunRequestedEvent asks a runner to execute a campaign batch. It
	// is published by the API and by schedule triggers.
	CampaignRunRequestedEvent EventType = "campaign.run.requested"

	// Campaign batch lifecycle events, published by the batch coordinator.
	CampaignStartedEvent   EventType = "campaign.started"
	CampaignCompletedEvent EventType = "campaign.completed"
	CampaignFailedEvent    EventType = "campaign.failed"
	CampaignPausedEvent    EventType = "campaign.paused"

	// LeadProcessedEvent reports one lead's terminal result.
	LeadProcessedEvent EventType = "campaign.lead.processed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	CampaignID string         `json:"campaign_id"`
	WorkerID   string         `json:"worker_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, campaignID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		CampaignID: campaignID,
		Metadata:   make(map[string]any),
	}
}

type CampaignRunRequested struct {
	BaseEvent

	Source      string `json:"source"`
	RequestedBy string `json:"requested_by,omitempty"`
}

func (c CampaignRunRequested) GetType() EventType {
	return CampaignRunRequestedEvent
}

type CampaignStarted struct {
	BaseEvent

	BatchID    string `json:"batch_id"`
	TotalLeads int    `json:"total_leads"`
}

func (c CampaignStarted) GetType() EventType {
	return CampaignStartedEvent
}

type CampaignCompleted struct {
	BaseEvent

	BatchID    string               `json:"batch_id"`
	Stats      models.CampaignStats `json:"stats"`
	DurationMs int64                `json:"duration_ms"`
}

func (c CampaignCompleted) GetType() EventType {
	return CampaignCompletedEvent
}

type CampaignFailed struct {
	BaseEvent

	BatchID    string `json:"batch_id"`
	Error      string `json:"error"`
	DurationMs int64  `json:"duration_ms"`
}

func (c CampaignFailed) GetType() EventType {
	return CampaignFailedEvent
}

type CampaignPaused struct {
	BaseEvent

	BatchID        string `json:"batch_id"`
	LeadsRemaining int    `json:"leads_remaining"`
}

func (c CampaignPaused) GetType() EventType {
	return CampaignPausedEvent
}

type LeadProcessed struct {
	BaseEvent

	BatchID        string             `json:"batch_id"`
	CampaignLeadID string             `json:"campaign_lead_id"`
	LeadID         string             `json:"lead_id"`
	Status         models.LeadStatus  `json:"status"`
	Sent           bool               `json:"sent"`
	VoiceCallMade  bool               `json:"voice_call_made"`
	FailureKind    models.FailureKind `json:"failure_kind,omitempty"`
	Cost           float64            `json:"cost"`
	DurationMs     int64              `json:"duration_ms"`
	TraceID        string             `json:"trace_id,omitempty"`
}

func (l LeadProcessed) GetType() EventType {
	return LeadProcessedEvent
}
