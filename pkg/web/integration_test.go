//go:build integration

package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/getleadpipe/leadpipe/pkg/batch"
	"github.com/getleadpipe/leadpipe/pkg/channels/gochannel"
	"github.com/getleadpipe/leadpipe/pkg/delivery"
	"github.com/getleadpipe/leadpipe/pkg/eventbus"
	"github.com/getleadpipe/leadpipe/pkg/events"
	"github.com/getleadpipe/leadpipe/pkg/generation"
	"github.com/getleadpipe/leadpipe/pkg/models"
	"github.com/getleadpipe/leadpipe/pkg/nodes/deliver"
	"github.com/getleadpipe/leadpipe/pkg/nodes/finalize"
	"github.com/getleadpipe/leadpipe/pkg/nodes/generate"
	"github.com/getleadpipe/leadpipe/pkg/nodes/handoff"
	"github.com/getleadpipe/leadpipe/pkg/nodes/validate"
	"github.com/getleadpipe/leadpipe/pkg/nodes/voice"
	"github.com/getleadpipe/leadpipe/pkg/persistence/postgresql"
	"github.com/getleadpipe/leadpipe/pkg/registry"
	"github.com/getleadpipe/leadpipe/pkg/services"
	"github.com/getleadpipe/leadpipe/pkg/web"
)

func setupIntegrationDB(t *testing.T) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	t.Cleanup(cancel)

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("leadpipe_api_test"),
		postgres.WithUsername("leadpipe"),
		postgres.WithPassword("leadpipe"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	databaseURL, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	return databaseURL
}

func setupIntegrationApp(t *testing.T, databaseURL string) (*fiber.App, chan *events.CampaignRunRequested) {
	t.Helper()

	logger := slog.Default()

	// migrations run on construction
	store, err := postgresql.NewPersistence(context.Background(), logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, store.Close(context.Background()))
	})

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		require.NoError(t, bus.Close())
	})

	requested := make(chan *events.CampaignRunRequested, 8)
	require.NoError(t, bus.Handle(events.CampaignRunRequestedEvent, func(_ context.Context, event any) error {
		requested <- event.(*events.CampaignRunRequested)

		return nil
	}))
	require.NoError(t, bus.Subscribe(context.Background()))

	mock := delivery.NewMock(logger)

	reg := registry.NewRegistry(logger)
	reg.RegisterNode(validate.NewFactory())
	reg.RegisterNode(generate.NewFactory(generation.NewMock()))
	reg.RegisterNode(deliver.NewFactory(mock))
	reg.RegisterNode(voice.NewFactory(mock))
	reg.RegisterNode(handoff.NewFactory())
	reg.RegisterNode(finalize.NewFactory(batch.NewStoreSink(store)))

	handlers := web.NewAPIHandlers(
		services.NewCampaign(store, reg, bus),
		services.NewLead(store),
		validator.New(validator.WithRequiredStructEnabled()),
	)

	app := fiber.New()

	campaigns := app.Group("/campaigns")
	campaigns.Get("/", handlers.GetCampaigns)
	campaigns.Post("/", handlers.CreateCampaign)
	campaigns.Get("/:id", handlers.GetCampaign)
	campaigns.Delete("/:id", handlers.DeleteCampaign)
	campaigns.Post("/:id/leads", handlers.AttachLead)
	campaigns.Get("/:id/leads", handlers.GetCampaignLeads)
	campaigns.Get("/:id/results", handlers.GetCampaignResults)
	campaigns.Post("/:id/compile", handlers.CompileCampaignGraph)
	campaigns.Post("/:id/start", handlers.StartCampaign)

	leads := app.Group("/leads")
	leads.Post("/", handlers.CreateLead)
	leads.Get("/:id", handlers.GetLead)

	return app, requested
}

func TestCampaignLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	databaseURL := setupIntegrationDB(t)
	app, requested := setupIntegrationApp(t, databaseURL)

	post := func(url string, payload any) *http.Response {
		body, err := json.Marshal(payload)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)

		return resp
	}

	// create a dual role campaign against the real store
	resp := post("/campaigns/", web.CreateCampaignRequest{
		Name:     "Integration Campaign",
		Channels: []string{"sms", "voice"},
		Roles: web.RolesRequest{
			Mode:          "dual",
			Creative:      &web.AgentConfigRequest{SystemPrompt: "Draft the message."},
			Deterministic: &web.AgentConfigRequest{SystemPrompt: "Execute the channels."},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var campaign models.Campaign
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&campaign))
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, models.CampaignStatusDraft, campaign.Status)
	assert.Equal(t, models.RoleModeDual, campaign.Roles.Mode)

	// create and attach a lead
	resp = post("/leads/", web.CreateLeadRequest{Name: "Ada", Phone: "+14155551234"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var lead models.Lead
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lead))
	require.NoError(t, resp.Body.Close())

	resp = post("/campaigns/"+campaign.ID+"/leads", web.AttachLeadRequest{LeadID: lead.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	// the compiled graph for a dual role campaign includes the hand-off node
	resp = post("/campaigns/"+campaign.ID+"/compile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var spec struct {
		Nodes []struct {
			Type string `json:"type"`
		} `json:"nodes"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&spec))
	require.NoError(t, resp.Body.Close())

	types := make([]string, 0, len(spec.Nodes))
	for _, node := range spec.Nodes {
		types = append(types, node.Type)
	}

	assert.Contains(t, types, "handoff")

	// start publishes a run request
	resp = post("/campaigns/"+campaign.ID+"/start", web.StartCampaignRequest{RequestedBy: "integration"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	select {
	case event := <-requested:
		assert.Equal(t, campaign.ID, event.CampaignID)
		assert.Equal(t, "integration", event.RequestedBy)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for run request event")
	}

	// results survive the round trip through postgres
	req := httptest.NewRequest(http.MethodGet, "/campaigns/"+campaign.ID+"/results", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var results services.CampaignResults
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, 1, results.Stats.TotalLeads)
	require.Len(t, results.Leads, 1)
	assert.Equal(t, lead.ID, results.Leads[0].LeadID)
}
