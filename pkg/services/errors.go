// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest  = errors.New("invalid request")
	ErrInvalidChannels = errors.New("invalid channel set")
	ErrInvalidRoles    = errors.New("invalid agent role configuration")
	ErrInvalidSchedule = errors.New("invalid schedule expression")
	ErrCampaignNil     = errors.New("campaign cannot be nil")
	ErrLeadNil         = errors.New("lead cannot be nil")

	// Business Logic Conflicts (409 Conflict).
	ErrCampaignNotStartable = errors.New("campaign cannot be started in its current status")
	ErrCampaignNotPausable  = errors.New("only a processing campaign can be paused")
	ErrCampaignNotResumable = errors.New("only a paused campaign can be resumed")
	ErrCampaignProcessing   = errors.New("campaign is processing")
	ErrLeadAlreadyAttached  = errors.New("lead is already attached to the campaign")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidChannels) ||
		errors.Is(err, ErrInvalidRoles) ||
		errors.Is(err, ErrInvalidSchedule) ||
		errors.Is(err, ErrCampaignNil) ||
		errors.Is(err, ErrLeadNil)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrCampaignNotStartable) ||
		errors.Is(err, ErrCampaignNotPausable) ||
		errors.Is(err, ErrCampaignNotResumable) ||
		errors.Is(err, ErrCampaignProcessing) ||
		errors.Is(err, ErrLeadAlreadyAttached)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
