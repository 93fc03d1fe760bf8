package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getleadpipe/leadpipe/pkg/batch"
	"github.com/getleadpipe/leadpipe/pkg/channels/gochannel"
	"github.com/getleadpipe/leadpipe/pkg/delivery"
	"github.com/getleadpipe/leadpipe/pkg/eventbus"
	"github.com/getleadpipe/leadpipe/pkg/generation"
	"github.com/getleadpipe/leadpipe/pkg/models"
	"github.com/getleadpipe/leadpipe/pkg/nodes/deliver"
	"github.com/getleadpipe/leadpipe/pkg/nodes/finalize"
	"github.com/getleadpipe/leadpipe/pkg/nodes/generate"
	"github.com/getleadpipe/leadpipe/pkg/nodes/handoff"
	"github.com/getleadpipe/leadpipe/pkg/nodes/validate"
	"github.com/getleadpipe/leadpipe/pkg/nodes/voice"
	"github.com/getleadpipe/leadpipe/pkg/persistence"
	"github.com/getleadpipe/leadpipe/pkg/persistence/file"
	"github.com/getleadpipe/leadpipe/pkg/registry"
)

func setupTestApp(t *testing.T, tempDir string) (*fiber.App, persistence.Persistence) {
	t.Helper()

	store := file.NewPersistence(tempDir)
	logger := slog.Default()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		require.NoError(t, bus.Close())
	})

	mock := delivery.NewMock(logger)

	reg := registry.NewRegistry(logger)
	reg.RegisterNode(validate.NewFactory())
	reg.RegisterNode(generate.NewFactory(generation.NewMock()))
	reg.RegisterNode(deliver.NewFactory(mock))
	reg.RegisterNode(voice.NewFactory(mock))
	reg.RegisterNode(handoff.NewFactory())
	reg.RegisterNode(finalize.NewFactory(batch.NewStoreSink(store)))

	api := NewAPI(logger, store, reg, bus)

	return api.App(), store
}

func TestAPI_RootEndpoint(t *testing.T) {
	app, _ := setupTestApp(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Leadpipe API", string(body))
}

func TestAPI_HealthCheck(t *testing.T) {
	app, _ := setupTestApp(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))
}

func TestAPI_GetCampaigns_Empty(t *testing.T) {
	app, _ := setupTestApp(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/campaigns", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Campaigns  []models.Campaign `json:"campaigns"`
		TotalCount int               `json:"total_count"`
	}

	err = json.NewDecoder(resp.Body).Decode(&listing)
	require.NoError(t, err)
	assert.Empty(t, listing.Campaigns)
	assert.Zero(t, listing.TotalCount)
}

func TestAPI_GetCampaigns_WithData(t *testing.T) {
	tempDir := t.TempDir()
	app, store := setupTestApp(t, tempDir)

	for _, name := range []string{"First Campaign", "Second Campaign"} {
		campaign := &models.Campaign{
			ID:        uuid.New().String(),
			Name:      name,
			Status:    models.CampaignStatusDraft,
			Channels:  models.ChannelSet{models.ChannelSMS},
			Roles:     models.SingleRole(models.AgentConfig{SystemPrompt: "You are an SDR."}),
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		require.NoError(t, store.Campaigns().Save(t.Context(), campaign))
	}

	req := httptest.NewRequest(http.MethodGet, "/campaigns", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Campaigns  []models.Campaign `json:"campaigns"`
		TotalCount int               `json:"total_count"`
	}

	err = json.NewDecoder(resp.Body).Decode(&listing)
	require.NoError(t, err)
	assert.Equal(t, 2, listing.TotalCount)

	names := []string{listing.Campaigns[0].Name, listing.Campaigns[1].Name}
	assert.Contains(t, names, "First Campaign")
	assert.Contains(t, names, "Second Campaign")
}

func TestAPI_GetCampaign_NotFound(t *testing.T) {
	app, _ := setupTestApp(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/campaigns/non-existent", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_CORS_Headers(t *testing.T) {
	app, _ := setupTestApp(t, t.TempDir())

	req := httptest.NewRequest(http.MethodOptions, "/campaigns", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestAPI_ContentType_JSON(t *testing.T) {
	app, _ := setupTestApp(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/campaigns", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
}
