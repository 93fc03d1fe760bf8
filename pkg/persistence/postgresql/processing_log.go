package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/getleadpipe/leadpipe/pkg/models"
)

// ProcessingLogRepository handles persisted engine log database operations.
type ProcessingLogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewProcessingLogRepository creates a new processing log repository.
func NewProcessingLogRepository(db *sql.DB, logger *slog.Logger) *ProcessingLogRepository {
	return &ProcessingLogRepository{db: db, logger: logger}
}

// Append inserts log entries in order, assigning IDs and timestamps where
// missing. All entries are written in one transaction.
func (r *ProcessingLogRepository) Append(ctx context.Context, entries []*models.ProcessingLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
		INSERT INTO processing_logs (id, campaign_lead_id, level, node_name, message, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, entry := range entries {
		if entry.ID == "" {
			var id uuid.UUID

			id, err = uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate log entry ID: %w", err)
			}

			entry.ID = id.String()
		}

		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now().UTC()
		}

		var metadataJSON []byte
		if entry.Metadata != nil {
			metadataJSON, err = json.Marshal(entry.Metadata)
			if err != nil {
				return fmt.Errorf("failed to marshal log entry metadata: %w", err)
			}
		}

		_, err = tx.ExecContext(ctx, query,
			entry.ID,
			entry.CampaignLeadID,
			entry.Level,
			entry.NodeName,
			entry.Message,
			metadataJSON,
			entry.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert processing log entry: %w", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListByCampaignLead returns the stored engine log in append order.
func (r *ProcessingLogRepository) ListByCampaignLead(ctx context.Context, campaignLeadID string) ([]*models.ProcessingLogEntry, error) {
	query := `
		SELECT id, campaign_lead_id, level, node_name, message, metadata, created_at
		FROM processing_logs
		WHERE campaign_lead_id = $1
		ORDER BY seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query, campaignLeadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query processing logs: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	entries := make([]*models.ProcessingLogEntry, 0)

	for rows.Next() {
		var (
			entry        models.ProcessingLogEntry
			nodeName     sql.NullString
			metadataJSON []byte
		)

		err := rows.Scan(
			&entry.ID,
			&entry.CampaignLeadID,
			&entry.Level,
			&nodeName,
			&entry.Message,
			&metadataJSON,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan processing log entry: %w", err)
		}

		entry.NodeName = nodeName.String

		if metadataJSON != nil {
			err := json.Unmarshal(metadataJSON, &entry.Metadata)
			if err != nil {
				return nil, fmt.Errorf("failed to unmarshal log entry metadata: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating processing logs: %w", err)
	}

	return entries, nil
}
