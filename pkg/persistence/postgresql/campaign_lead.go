package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/getleadpipe/leadpipe/pkg/models"
)

// CampaignLeadRepository handles per-lead run record database operations.
type CampaignLeadRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewCampaignLeadRepository creates a new campaign lead repository.
func NewCampaignLeadRepository(db *sql.DB, logger *slog.Logger) *CampaignLeadRepository {
	return &CampaignLeadRepository{db: db, logger: logger}
}

const campaignLeadColumns = `
	id
  , campaign_id
  , lead_id
  , status
  , sent
  , message
  , delivery_response
  , voice_call_made
  , voice_call_id
  , failure_kind
  , error_message
  , trace_id
  , cost
  , processed_at
  , created_at
  , updated_at
`

// ListByCampaign returns a campaign's lead records in attach order, which is
// the order the batch coordinator processes them in.
func (r *CampaignLeadRepository) ListByCampaign(ctx context.Context, campaignID string) ([]*models.CampaignLead, error) {
	query := `
		SELECT ` + campaignLeadColumns + `
		FROM campaign_leads
		WHERE campaign_id = $1
		ORDER BY created_at ASC
	`

	return r.list(ctx, query, campaignID)
}

// ListPending returns the campaign's still-unprocessed lead records in attach
// order.
func (r *CampaignLeadRepository) ListPending(ctx context.Context, campaignID string) ([]*models.CampaignLead, error) {
	query := `
		SELECT ` + campaignLeadColumns + `
		FROM campaign_leads
		WHERE campaign_id = $1 AND status = $2
		ORDER BY created_at ASC
	`

	return r.list(ctx, query, campaignID, models.LeadStatusPending)
}

func (r *CampaignLeadRepository) list(ctx context.Context, query string, args ...any) ([]*models.CampaignLead, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaign leads: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	records := make([]*models.CampaignLead, 0)

	for rows.Next() {
		record, err := scanCampaignLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign lead: %w", err)
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating campaign leads: %w", err)
	}

	return records, nil
}

// GetByID retrieves one record by its ID. Returns (nil, nil) when missing.
func (r *CampaignLeadRepository) GetByID(ctx context.Context, id string) (*models.CampaignLead, error) {
	query := `
		SELECT ` + campaignLeadColumns + `
		FROM campaign_leads
		WHERE id = $1
	`

	record, err := scanCampaignLead(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan campaign lead: %w", err)
	}

	return record, nil
}

// Save upserts one record, assigning an ID and timestamps on first save.
func (r *CampaignLeadRepository) Save(ctx context.Context, record *models.CampaignLead) error {
	now := time.Now().UTC()

	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}

	record.UpdatedAt = now

	if record.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate campaign lead ID: %w", err)
		}

		record.ID = id.String()
	}

	query := `
		INSERT INTO campaign_leads (id, campaign_id, lead_id, status, sent, message,
	delivery_response, voice_call_made, voice_call_id, failure_kind, error_message,
	trace_id, cost, processed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			sent = EXCLUDED.sent,
			message = EXCLUDED.message,
			delivery_response = EXCLUDED.delivery_response,
			voice_call_made = EXCLUDED.voice_call_made,
			voice_call_id = EXCLUDED.voice_call_id,
			failure_kind = EXCLUDED.failure_kind,
			error_message = EXCLUDED.error_message,
			trace_id = EXCLUDED.trace_id,
			cost = EXCLUDED.cost,
			processed_at = EXCLUDED.processed_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.CampaignID,
		record.LeadID,
		record.Status,
		record.Sent,
		record.Message,
		record.DeliveryResponse,
		record.VoiceCallMade,
		record.VoiceCallID,
		record.FailureKind,
		record.ErrorMessage,
		record.TraceID,
		record.Cost,
		record.ProcessedAt,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save campaign lead: %w", err)
	}

	return nil
}

func scanCampaignLead(scanner interface {
	Scan(dest ...any) error
}) (*models.CampaignLead, error) {
	var (
		record                    models.CampaignLead
		message, deliveryResponse sql.NullString
		voiceCallID, failureKind  sql.NullString
		errorMessage, traceID     sql.NullString
		processedAt               sql.NullTime
	)

	err := scanner.Scan(
		&record.ID,
		&record.CampaignID,
		&record.LeadID,
		&record.Status,
		&record.Sent,
		&message,
		&deliveryResponse,
		&record.VoiceCallMade,
		&voiceCallID,
		&failureKind,
		&errorMessage,
		&traceID,
		&record.Cost,
		&processedAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Message = message.String
	record.DeliveryResponse = deliveryResponse.String
	record.VoiceCallID = voiceCallID.String
	record.FailureKind = models.FailureKind(failureKind.String)
	record.ErrorMessage = errorMessage.String
	record.TraceID = traceID.String

	if processedAt.Valid {
		record.ProcessedAt = &processedAt.Time
	}

	return &record, nil
}
