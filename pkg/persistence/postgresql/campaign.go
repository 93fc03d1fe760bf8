package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/getleadpipe/leadpipe/pkg/models"
)

// CampaignRepository handles campaign-related database operations.
type CampaignRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewCampaignRepository creates a new campaign repository.
func NewCampaignRepository(db *sql.DB, logger *slog.Logger) *CampaignRepository {
	return &CampaignRepository{db: db, logger: logger}
}

const campaignColumns = `
	id
  , name
  , description
  , status
  , channels
  , roles
  , graph
  , schedule
  , stats
  , created_at
  , updated_at
  , started_at
  , completed_at
  , deleted_at
`

// List returns all campaigns, newest first.
func (r *CampaignRepository) List(ctx context.Context) ([]*models.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaigns: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	campaigns := make([]*models.Campaign, 0)

	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}

		campaigns = append(campaigns, campaign)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating campaigns: %w", err)
	}

	return campaigns, nil
}

// GetByID retrieves a campaign by its ID. Returns (nil, nil) when missing.
func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE id = $1 AND deleted_at IS NULL
	`

	campaign, err := scanCampaign(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan campaign: %w", err)
	}

	return campaign, nil
}

// Save upserts a campaign, assigning an ID and timestamps on first save.
func (r *CampaignRepository) Save(ctx context.Context, campaign *models.Campaign) error {
	now := time.Now().UTC()

	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = now
	}

	campaign.UpdatedAt = now

	if campaign.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate campaign ID: %w", err)
		}

		campaign.ID = id.String()
	}

	channelsJSON, err := json.Marshal(campaign.Channels)
	if err != nil {
		return fmt.Errorf("failed to marshal channels: %w", err)
	}

	rolesJSON, err := json.Marshal(campaign.Roles)
	if err != nil {
		return fmt.Errorf("failed to marshal roles: %w", err)
	}

	var graphJSON []byte
	if campaign.Graph != nil {
		graphJSON, err = json.Marshal(campaign.Graph)
		if err != nil {
			return fmt.Errorf("failed to marshal graph: %w", err)
		}
	}

	statsJSON, err := json.Marshal(campaign.Stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	query := `
		INSERT INTO campaigns (id, name, description, status, channels, roles, graph,
	schedule, stats, created_at, updated_at, started_at, completed_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			channels = EXCLUDED.channels,
			roles = EXCLUDED.roles,
			graph = EXCLUDED.graph,
			schedule = EXCLUDED.schedule,
			stats = EXCLUDED.stats,
			updated_at = EXCLUDED.updated_at,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at,
			deleted_at = EXCLUDED.deleted_at
	`

	_, err = r.db.ExecContext(ctx, query,
		campaign.ID,
		campaign.Name,
		campaign.Description,
		campaign.Status,
		channelsJSON,
		rolesJSON,
		graphJSON,
		campaign.Schedule,
		statsJSON,
		campaign.CreatedAt,
		campaign.UpdatedAt,
		campaign.StartedAt,
		campaign.CompletedAt,
		campaign.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save campaign: %w", err)
	}

	return nil
}

// Delete soft deletes a campaign by setting the deleted_at timestamp.
func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE campaigns SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}

	return nil
}

func scanCampaign(scanner interface {
	Scan(dest ...any) error
}) (*models.Campaign, error) {
	var (
		campaign                models.Campaign
		channelsJSON, rolesJSON []byte
		graphJSON, statsJSON    []byte
		description, schedule   sql.NullString
		startedAt, completedAt  sql.NullTime
	)

	err := scanner.Scan(
		&campaign.ID,
		&campaign.Name,
		&description,
		&campaign.Status,
		&channelsJSON,
		&rolesJSON,
		&graphJSON,
		&schedule,
		&statsJSON,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
		&startedAt,
		&completedAt,
		&campaign.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	campaign.Description = description.String
	campaign.Schedule = schedule.String

	if startedAt.Valid {
		campaign.StartedAt = &startedAt.Time
	}

	if completedAt.Valid {
		campaign.CompletedAt = &completedAt.Time
	}

	if channelsJSON != nil {
		err := json.Unmarshal(channelsJSON, &campaign.Channels)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal channels: %w", err)
		}
	}

	if rolesJSON != nil {
		err := json.Unmarshal(rolesJSON, &campaign.Roles)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal roles: %w", err)
		}
	}

	if graphJSON != nil {
		err := json.Unmarshal(graphJSON, &campaign.Graph)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
		}
	}

	if statsJSON != nil {
		err := json.Unmarshal(statsJSON, &campaign.Stats)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
		}
	}

	return &campaign, nil
}
