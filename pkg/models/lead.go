// Package models defines the core domain models for campaign lead processing.
package models

import "time"

// Lead is a contact record to be processed by one campaign run.
type Lead struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"              validate:"required"`
	Phone     string     `json:"phone"             validate:"required"`
	Email     string     `json:"email,omitempty"   validate:"omitempty,email"`
	Company   string     `json:"company,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// LeadSnapshot is the immutable view of a lead threaded through one run.
type LeadSnapshot struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Company string `json:"company,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

func NewLeadSnapshot(lead *Lead) LeadSnapshot {
	return LeadSnapshot{
		Name:    lead.Name,
		Phone:   lead.Phone,
		Email:   lead.Email,
		Company: lead.Company,
		Notes:   lead.Notes,
	}
}
