package models

import "time"

// LogLevel is the severity of a processing-log entry.
type LogLevel string

const (
	LogLevelInfo  LogLevel = "INFO"
	LogLevelError LogLevel = "ERROR"
)

// ProcessingLogEntry is one persisted engine log line for a campaign lead.
type ProcessingLogEntry struct {
	ID             string         `json:"id"`
	CampaignLeadID string         `json:"campaign_lead_id" validate:"required"`
	Level          LogLevel       `json:"level"`
	NodeName       string         `json:"node_name,omitempty"`
	Message        string         `json:"message"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
