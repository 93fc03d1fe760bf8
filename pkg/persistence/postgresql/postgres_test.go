package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/getleadpipe/leadpipe/pkg/models"
	"github.com/getleadpipe/leadpipe/pkg/persistence/postgresql"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	// Drop tables in reverse dependency order (children first, parents last)
	for _, table := range []string{"processing_logs", "conversation_messages", "campaign_leads", "leads", "campaigns", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("leadpipe_test"),
			postgres.WithUsername("leadpipe"),
			postgres.WithPassword("leadpipe"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	persistence, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = persistence.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return persistence, ctx, databaseURL
}

func newTestCampaign(name string) *models.Campaign {
	return &models.Campaign{
		Name:     name,
		Status:   models.CampaignStatusDraft,
		Channels: models.NewChannelSet(models.ChannelSMS, models.ChannelVoice),
		Roles: models.SingleRole(models.AgentConfig{
			SystemPrompt: "You are an outreach assistant.",
			Temperature:  0.7,
		}),
	}
}

func attachTestLead(ctx context.Context, t *testing.T, p *postgresql.Persistence, campaignID string) *models.CampaignLead {
	t.Helper()

	lead := &models.Lead{Name: "Ada Lovelace", Phone: "+1 555 0100"}
	require.NoError(t, p.Leads().Save(ctx, lead))

	record := &models.CampaignLead{
		CampaignID: campaignID,
		LeadID:     lead.ID,
		Status:     models.LeadStatusPending,
	}
	require.NoError(t, p.CampaignLeads().Save(ctx, record))

	return record
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	// Verify tables were created
	var exists bool

	for _, table := range []string{"campaigns", "leads", "campaign_leads", "conversation_messages", "processing_logs"} {
		err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, table+" table should exist")
	}

	var version int

	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	err := p.HealthCheck(ctx)
	assert.NoError(t, err)
}

func TestCampaignRepository_SaveAndRetrieve(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	campaign := newTestCampaign("Spring Promo")
	campaign.Graph = &models.GraphDefinition{
		Nodes: []models.GraphDefNode{
			{ID: "start-1", Type: "start"},
			{ID: "check", Type: "validate", Data: map[string]any{"enforce_working_hours": true}},
			{ID: "done", Type: "finalize"},
		},
		Edges: []models.GraphDefEdge{
			{Source: "start-1", Target: "check"},
			{Source: "check", Target: "done"},
		},
	}
	campaign.Schedule = "0 9 * * MON"

	err := p.Campaigns().Save(ctx, campaign)
	require.NoError(t, err)
	assert.NotEmpty(t, campaign.ID)
	assert.False(t, campaign.CreatedAt.IsZero())

	retrieved, err := p.Campaigns().GetByID(ctx, campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	assert.Equal(t, campaign.ID, retrieved.ID)
	assert.Equal(t, "Spring Promo", retrieved.Name)
	assert.Equal(t, models.CampaignStatusDraft, retrieved.Status)
	assert.Equal(t, models.NewChannelSet(models.ChannelSMS, models.ChannelVoice), retrieved.Channels)
	assert.Equal(t, models.RoleModeSingle, retrieved.Roles.Mode)
	require.NotNil(t, retrieved.Roles.Single)
	assert.Equal(t, "You are an outreach assistant.", retrieved.Roles.Single.SystemPrompt)
	require.NotNil(t, retrieved.Graph)
	assert.Len(t, retrieved.Graph.Nodes, 3)
	assert.Equal(t, "0 9 * * MON", retrieved.Schedule)

	notFound, err := p.Campaigns().GetByID(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, notFound)
}

func TestCampaignRepository_Update(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	campaign := newTestCampaign("Renewals")
	require.NoError(t, p.Campaigns().Save(ctx, campaign))

	initialUpdatedAt := campaign.UpdatedAt

	time.Sleep(10 * time.Millisecond)

	startedAt := time.Now().UTC()
	campaign.Status = models.CampaignStatusProcessing
	campaign.StartedAt = &startedAt
	campaign.Stats.LeadAttached()
	campaign.Stats.LeadStarted()

	require.NoError(t, p.Campaigns().Save(ctx, campaign))

	retrieved, err := p.Campaigns().GetByID(ctx, campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	assert.Equal(t, models.CampaignStatusProcessing, retrieved.Status)
	require.NotNil(t, retrieved.StartedAt)
	assert.Equal(t, 1, retrieved.Stats.TotalLeads)
	assert.Equal(t, 1, retrieved.Stats.Processing)
	assert.True(t, retrieved.UpdatedAt.After(initialUpdatedAt))
}

func TestCampaignRepository_SoftDelete(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	campaign := newTestCampaign("Short lived")
	require.NoError(t, p.Campaigns().Save(ctx, campaign))

	require.NoError(t, p.Campaigns().Delete(ctx, campaign.ID))

	deleted, err := p.Campaigns().GetByID(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Nil(t, deleted)

	// Delete non-existent campaign (should not error)
	assert.NoError(t, p.Campaigns().Delete(ctx, uuid.NewString()))
}

func TestLeadRepository_SaveAndList(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	lead := &models.Lead{
		Name:    "Ada Lovelace",
		Phone:   "+1 555 0100",
		Email:   "ada@example.com",
		Company: "Analytical Engines",
	}

	require.NoError(t, p.Leads().Save(ctx, lead))
	assert.NotEmpty(t, lead.ID)

	retrieved, err := p.Leads().GetByID(ctx, lead.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	assert.Equal(t, "Ada Lovelace", retrieved.Name)
	assert.Equal(t, "ada@example.com", retrieved.Email)

	leads, err := p.Leads().List(ctx)
	require.NoError(t, err)
	assert.Len(t, leads, 1)

	require.NoError(t, p.Leads().Delete(ctx, lead.ID))

	leads, err = p.Leads().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestCampaignLeadRepository_AttachOrderAndPending(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	campaign := newTestCampaign("Ordered batch")
	require.NoError(t, p.Campaigns().Save(ctx, campaign))

	first := attachTestLead(ctx, t, p, campaign.ID)
	second := attachTestLead(ctx, t, p, campaign.ID)
	third := attachTestLead(ctx, t, p, campaign.ID)

	second.Status = models.LeadStatusCompleted
	second.Sent = true
	require.NoError(t, p.CampaignLeads().Save(ctx, second))

	records, err := p.CampaignLeads().ListByCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, first.ID, records[0].ID)
	assert.Equal(t, second.ID, records[1].ID)
	assert.Equal(t, third.ID, records[2].ID)

	pending, err := p.CampaignLeads().ListPending(ctx, campaign.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, third.ID, pending[1].ID)
}

func TestCampaignLeadRepository_RunResultRoundTrip(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	campaign := newTestCampaign("Results")
	require.NoError(t, p.Campaigns().Save(ctx, campaign))

	record := attachTestLead(ctx, t, p, campaign.ID)

	processedAt := time.Now().UTC().Truncate(time.Millisecond)
	record.Status = models.LeadStatusFailed
	record.FailureKind = models.FailureDelivery
	record.ErrorMessage = "SMS: rejected by provider (undeliverable)"
	record.TraceID = uuid.NewString()
	record.Cost = 0.0125
	record.ProcessedAt = &processedAt

	require.NoError(t, p.CampaignLeads().Save(ctx, record))

	retrieved, err := p.CampaignLeads().GetByID(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	assert.Equal(t, models.LeadStatusFailed, retrieved.Status)
	assert.Equal(t, models.FailureDelivery, retrieved.FailureKind)
	assert.Equal(t, "SMS: rejected by provider (undeliverable)", retrieved.ErrorMessage)
	assert.InDelta(t, 0.0125, retrieved.Cost, 1e-9)
	require.NotNil(t, retrieved.ProcessedAt)
	assert.True(t, retrieved.ProcessedAt.Equal(processedAt))
}

func TestConversationRepository_AppendAndList(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	campaign := newTestCampaign("Transcripts")
	require.NoError(t, p.Campaigns().Save(ctx, campaign))

	record := attachTestLead(ctx, t, p, campaign.ID)

	err := p.Conversations().Append(ctx, []*models.ConversationMessage{
		{CampaignLeadID: record.ID, Role: models.MessageRoleSystem, Content: "You are an outreach assistant."},
		{CampaignLeadID: record.ID, Role: models.MessageRoleAssistant, AgentRole: models.RoleAgent, Content: "Hi Ada, quick follow-up", Metadata: map[string]any{"model": "gpt-4o-mini"}},
	})
	require.NoError(t, err)

	err = p.Conversations().Append(ctx, []*models.ConversationMessage{
		{CampaignLeadID: record.ID, Role: models.MessageRoleTool, AgentRole: models.RoleAgent, Content: "Hi Ada, quick follow-up"},
	})
	require.NoError(t, err)

	messages, err := p.Conversations().ListByCampaignLead(ctx, record.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	assert.Equal(t, models.MessageRoleSystem, messages[0].Role)
	assert.Equal(t, models.MessageRoleAssistant, messages[1].Role)
	assert.Equal(t, "gpt-4o-mini", messages[1].Metadata["model"])
	assert.Equal(t, models.MessageRoleTool, messages[2].Role)
}

func TestProcessingLogRepository_AppendAndList(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	campaign := newTestCampaign("Engine logs")
	require.NoError(t, p.Campaigns().Save(ctx, campaign))

	record := attachTestLead(ctx, t, p, campaign.ID)

	err := p.ProcessingLogs().Append(ctx, []*models.ProcessingLogEntry{
		{CampaignLeadID: record.ID, Level: models.LogLevelInfo, NodeName: "validate", Message: "validation finished"},
		{CampaignLeadID: record.ID, Level: models.LogLevelError, NodeName: "deliver", Message: "SMS: rejected by provider", Metadata: map[string]any{"provider_ref": "msg-1"}},
	})
	require.NoError(t, err)

	entries, err := p.ProcessingLogs().ListByCampaignLead(ctx, record.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "validate", entries[0].NodeName)
	assert.Equal(t, models.LogLevelError, entries[1].Level)
	assert.Equal(t, "msg-1", entries[1].Metadata["provider_ref"])
}
