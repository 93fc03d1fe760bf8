// Package web provides HTTP request and response types for the campaign API.
package web

import "github.com/getleadpipe/leadpipe/pkg/models"

// AgentConfigRequest carries one agent role's generation settings.
type AgentConfigRequest struct {
	SystemPrompt string  `json:"system_prompt" validate:"required"`
	Model        string  `json:"model,omitempty"`
	Temperature  float64 `json:"temperature"   validate:"gte=0,lte=2"`
}

// RolesRequest selects the agent role variant: a single role, or a
// creative/deterministic pair for the hand-off shape.
type RolesRequest struct {
	Mode          string              `json:"mode"                    validate:"required,oneof=single dual"`
	Single        *AgentConfigRequest `json:"single,omitempty"`
	Creative      *AgentConfigRequest `json:"creative,omitempty"`
	Deterministic *AgentConfigRequest `json:"deterministic,omitempty"`
}

// CreateCampaignRequest represents the request body for creating a new campaign.
type CreateCampaignRequest struct {
	Name        string                  `json:"name"                  validate:"required,min=3"`
	Description string                  `json:"description,omitempty"`
	Channels    []string                `json:"channels"              validate:"required,min=1,dive,oneof=sms voice"`
	Roles       RolesRequest            `json:"roles"                 validate:"required"`
	Graph       *models.GraphDefinition `json:"graph,omitempty"`
	Schedule    string                  `json:"schedule,omitempty"`
}

// ToModel assembles the campaign domain object. The role variant is built
// through its constructors so the mode tag and role ids stay consistent.
func (r CreateCampaignRequest) ToModel() (*models.Campaign, error) {
	channels := make(models.ChannelSet, 0, len(r.Channels))
	for _, channel := range r.Channels {
		channels = append(channels, models.ChannelType(channel))
	}

	roles, err := r.Roles.toModel()
	if err != nil {
		return nil, err
	}

	return &models.Campaign{
		Name:        r.Name,
		Description: r.Description,
		Channels:    channels,
		Roles:       roles,
		Graph:       r.Graph,
		Schedule:    r.Schedule,
	}, nil
}

func (r RolesRequest) toModel() (models.AgentRoles, error) {
	switch models.RoleMode(r.Mode) {
	case models.RoleModeDual:
		if r.Creative == nil || r.Deterministic == nil {
			return models.AgentRoles{}, errMissingRoleConfig
		}

		return models.DualRole(r.Creative.toModel(), r.Deterministic.toModel()), nil
	default:
		if r.Single == nil {
			return models.AgentRoles{}, errMissingRoleConfig
		}

		return models.SingleRole(r.Single.toModel()), nil
	}
}

func (r AgentConfigRequest) toModel() models.AgentConfig {
	return models.AgentConfig{
		SystemPrompt: r.SystemPrompt,
		Model:        r.Model,
		Temperature:  r.Temperature,
	}
}

// CreateLeadRequest represents the request body for creating a new lead.
type CreateLeadRequest struct {
	Name    string `json:"name"              validate:"required"`
	Phone   string `json:"phone"             validate:"required"`
	Email   string `json:"email,omitempty"   validate:"omitempty,email"`
	Company string `json:"company,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// UpdateLeadRequest represents the request body for updating an existing lead.
// All fields are optional to support partial updates.
type UpdateLeadRequest struct {
	Name    *string `json:"name,omitempty"    validate:"omitempty,min=1"`
	Phone   *string `json:"phone,omitempty"   validate:"omitempty,min=1"`
	Email   *string `json:"email,omitempty"   validate:"omitempty,email"`
	Company *string `json:"company,omitempty"`
	Notes   *string `json:"notes,omitempty"`
}

// AttachLeadRequest attaches an existing lead to a campaign.
type AttachLeadRequest struct {
	LeadID string `json:"lead_id" validate:"required"`
}

// StartCampaignRequest optionally records who asked for the run.
type StartCampaignRequest struct {
	RequestedBy string `json:"requested_by,omitempty"`
}
