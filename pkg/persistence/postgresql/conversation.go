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

// ConversationRepository handles persisted transcript database operations.
type ConversationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewConversationRepository creates a new conversation repository.
func NewConversationRepository(db *sql.DB, logger *slog.Logger) *ConversationRepository {
	return &ConversationRepository{db: db, logger: logger}
}

// Append inserts messages in order, assigning IDs and timestamps where
// missing. All messages are written in one transaction.
func (r *ConversationRepository) Append(ctx context.Context, messages []*models.ConversationMessage) error {
	if len(messages) == 0 {
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
		INSERT INTO conversation_messages (id, campaign_lead_id, role, agent_role, content, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, message := range messages {
		if message.ID == "" {
			var id uuid.UUID

			id, err = uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate message ID: %w", err)
			}

			message.ID = id.String()
		}

		if message.CreatedAt.IsZero() {
			message.CreatedAt = time.Now().UTC()
		}

		var metadataJSON []byte
		if message.Metadata != nil {
			metadataJSON, err = json.Marshal(message.Metadata)
			if err != nil {
				return fmt.Errorf("failed to marshal message metadata: %w", err)
			}
		}

		_, err = tx.ExecContext(ctx, query,
			message.ID,
			message.CampaignLeadID,
			message.Role,
			message.AgentRole,
			message.Content,
			metadataJSON,
			message.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert conversation message: %w", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListByCampaignLead returns the stored transcript in append order.
func (r *ConversationRepository) ListByCampaignLead(ctx context.Context, campaignLeadID string) ([]*models.ConversationMessage, error) {
	query := `
		SELECT id, campaign_lead_id, role, agent_role, content, metadata, created_at
		FROM conversation_messages
		WHERE campaign_lead_id = $1
		ORDER BY seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query, campaignLeadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation messages: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	messages := make([]*models.ConversationMessage, 0)

	for rows.Next() {
		var (
			message      models.ConversationMessage
			agentRole    sql.NullString
			metadataJSON []byte
		)

		err := rows.Scan(
			&message.ID,
			&message.CampaignLeadID,
			&message.Role,
			&agentRole,
			&message.Content,
			&metadataJSON,
			&message.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation message: %w", err)
		}

		message.AgentRole = agentRole.String

		if metadataJSON != nil {
			err := json.Unmarshal(metadataJSON, &message.Metadata)
			if err != nil {
				return nil, fmt.Errorf("failed to unmarshal message metadata: %w", err)
			}
		}

		messages = append(messages, &message)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating conversation messages: %w", err)
	}

	return messages, nil
}
