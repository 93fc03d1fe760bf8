// Package postgresql provides PostgreSQL persistence for campaigns, leads,
// and their per-run records.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/getleadpipe/leadpipe/pkg/persistence"
	"github.com/getleadpipe/leadpipe/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db               *sql.DB
	logger           *slog.Logger
	campaignRepo     *CampaignRepository
	leadRepo         *LeadRepository
	campaignLeadRepo *CampaignLeadRepository
	conversationRepo *ConversationRepository
	logRepo          *ProcessingLogRepository
}

// NewPersistence connects to PostgreSQL and runs pending schema migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:               database,
		logger:           logger,
		campaignRepo:     NewCampaignRepository(database, logger),
		leadRepo:         NewLeadRepository(database, logger),
		campaignLeadRepo: NewCampaignLeadRepository(database, logger),
		conversationRepo: NewConversationRepository(database, logger),
		logRepo:          NewProcessingLogRepository(database, logger),
	}, nil
}

func (p *Persistence) Campaigns() persistence.CampaignRepository {
	return p.campaignRepo
}

func (p *Persistence) Leads() persistence.LeadRepository {
	return p.leadRepo
}

func (p *Persistence) CampaignLeads() persistence.CampaignLeadRepository {
	return p.campaignLeadRepo
}

func (p *Persistence) Conversations() persistence.ConversationRepository {
	return p.conversationRepo
}

func (p *Persistence) ProcessingLogs() persistence.ProcessingLogRepository {
	return p.logRepo
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
