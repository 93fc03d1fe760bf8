package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types shared by all implementations.
var (
	// ErrCampaignNotFound indicates no campaign exists for the given identifier.
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrLeadNotFound indicates no lead exists for the given identifier.
	ErrLeadNotFound = errors.New("lead not found")

	// ErrCampaignLeadNotFound indicates no campaign lead record exists for the
	// given identifier.
	ErrCampaignLeadNotFound = errors.New("campaign lead not found")

	// ErrLeadAlreadyAttached indicates the lead is already part of the campaign.
	ErrLeadAlreadyAttached = errors.New("lead already attached to campaign")
)

// CampaignError wraps campaign-related storage errors with operation context.
type CampaignError struct {
	Op         string
	CampaignID string
	Err        error
}

func NewCampaignError(op, campaignID string, err error) *CampaignError {
	return &CampaignError{Op: op, CampaignID: campaignID, Err: err}
}

func (e *CampaignError) Error() string {
	return fmt.Sprintf("%s operation failed for campaign %s: %v", e.Op, e.CampaignID, e.Err)
}

func (e *CampaignError) Unwrap() error {
	return e.Err
}

func (e *CampaignError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// LeadError wraps lead-related storage errors with operation context.
type LeadError struct {
	Op     string
	LeadID string
	Err    error
}

func NewLeadError(op, leadID string, err error) *LeadError {
	return &LeadError{Op: op, LeadID: leadID, Err: err}
}

func (e *LeadError) Error() string {
	return fmt.Sprintf("%s operation failed for lead %s: %v", e.Op, e.LeadID, e.Err)
}

func (e *LeadError) Unwrap() error {
	return e.Err
}

func (e *LeadError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsCampaignNotFound checks if an error indicates a missing campaign.
func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

// IsLeadNotFound checks if an error indicates a missing lead.
func IsLeadNotFound(err error) bool {
	return errors.Is(err, ErrLeadNotFound)
}

// IsCampaignLeadNotFound checks if an error indicates a missing campaign lead.
func IsCampaignLeadNotFound(err error) bool {
	return errors.Is(err, ErrCampaignLeadNotFound)
}
