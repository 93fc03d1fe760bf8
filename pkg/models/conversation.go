package models

import "time"

// MessageRole identifies who produced a conversation entry.
type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleTool      MessageRole = "tool"
)

// ConversationMessage is one persisted transcript entry for a campaign lead.
type ConversationMessage struct {
	ID             string         `json:"id"`
	CampaignLeadID string         `json:"campaign_lead_id" validate:"required"`
	Role           MessageRole    `json:"role"             validate:"required"`
	AgentRole      string         `json:"agent_role,omitempty"`
	Content        string         `json:"content"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
