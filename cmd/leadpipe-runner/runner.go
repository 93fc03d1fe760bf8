// Package main provides the Leadpipe runner: it consumes campaign run
// requests and executes batches through the batch coordinator.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/getleadpipe/leadpipe/pkg/batch"
	"github.com/getleadpipe/leadpipe/pkg/eventbus"
	"github.com/getleadpipe/leadpipe/pkg/events"
	"github.com/getleadpipe/leadpipe/pkg/metrics"
	"github.com/getleadpipe/leadpipe/pkg/persistence"
	"github.com/getleadpipe/leadpipe/pkg/protocol"
	"github.com/getleadpipe/leadpipe/pkg/registry"
	"github.com/getleadpipe/leadpipe/pkg/triggers/queue"
)

// QueueConfig wires the optional Redis run-request queue.
type QueueConfig struct {
	Enabled bool
	Addr    string
	Queue   string
}

type RunnerManager struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	coordinator *batch.Coordinator
	queueConfig QueueConfig
	metricsAddr string

	triggerMutex    sync.Mutex
	runningTriggers map[string]protocol.Trigger
}

func NewRunnerManager(
	id string,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	registry *registry.Registry,
	queueConfig QueueConfig,
	metricsAddr string,
) *RunnerManager {
	return &RunnerManager{
		id:              id,
		logger:          logger.With("module", "leadpipe-runner", "worker_id", id),
		persistence:     persistence,
		registry:        registry,
		eventBus:        eventBus,
		coordinator:     batch.NewCoordinator(persistence, registry, eventBus, logger, id),
		queueConfig:     queueConfig,
		metricsAddr:     metricsAddr,
		runningTriggers: make(map[string]protocol.Trigger),
	}
}

// Start wires the run-request subscription and the campaign triggers, then
// blocks until SIGINT or SIGTERM.
func (m *RunnerManager) Start(ctx context.Context) error {
	m.logger.InfoContext(ctx, "Starting runner manager")

	if err := m.eventBus.Handle(events.CampaignRunRequestedEvent, m.handleRunRequested); err != nil {
		return err
	}

	if err := m.eventBus.Subscribe(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	if err := m.startScheduleTriggers(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Failed to start schedule triggers", "error", err)

		return err
	}

	if err := m.startQueueTrigger(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Failed to start queue trigger", "error", err)

		return err
	}

	if m.metricsAddr != "" {
		server := metrics.Server(m.metricsAddr)

		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				m.logger.Error("Metrics server stopped", "error", err)
			}
		}()

		defer func() {
			_ = server.Shutdown(context.Background())
		}()
	}

	m.logger.InfoContext(ctx, "Runner started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	m.logger.InfoContext(ctx, "Shutting down runner...")

	m.stopTriggers()

	return nil
}

// handleRunRequested executes one campaign batch. Batch errors are recorded
// on the campaign row by the coordinator; the handler acks the message either
// way so a broken campaign is not redelivered forever.
func (m *RunnerManager) handleRunRequested(ctx context.Context, event any) error {
	requested, ok := event.(*events.CampaignRunRequested)
	if !ok {
		m.logger.ErrorContext(ctx, "Invalid event type for CampaignRunRequested")

		return nil
	}

	logger := m.logger.With(
		"campaign_id", requested.CampaignID,
		"source", requested.Source,
		"event_id", requested.ID,
	)
	logger.InfoContext(ctx, "Processing campaign run request")

	if err := m.coordinator.Run(ctx, requested.CampaignID); err != nil {
		logger.ErrorContext(ctx, "Campaign batch failed", "error", err)
	}

	return nil
}

// startScheduleTriggers creates one cron trigger per campaign carrying a
// schedule, so due campaigns get their run requests without an API call.
func (m *RunnerManager) startScheduleTriggers(ctx context.Context) error {
	campaigns, err := m.persistence.Campaigns().List(ctx)
	if err != nil {
		return err
	}

	for _, campaign := range campaigns {
		if campaign.Schedule == "" {
			continue
		}

		triggerID := "schedule-" + campaign.ID
		config := map[string]any{
			"id":                   triggerID,
			"cron":                 campaign.Schedule,
			protocol.CampaignIDKey: campaign.ID,
		}

		trigger, err := m.registry.CreateTrigger("schedule", config)
		if err != nil {
			m.logger.ErrorContext(ctx, "Failed to create schedule trigger",
				"campaign_id", campaign.ID, "error", err)

			continue
		}

		if err := trigger.Start(ctx, m.triggerCallback("schedule")); err != nil {
			m.logger.ErrorContext(ctx, "Failed to start schedule trigger",
				"campaign_id", campaign.ID, "error", err)

			continue
		}

		m.triggerMutex.Lock()
		m.runningTriggers[triggerID] = trigger
		m.triggerMutex.Unlock()

		m.logger.InfoContext(ctx, "Started schedule trigger",
			"campaign_id", campaign.ID, "cron", campaign.Schedule)
	}

	return nil
}

func (m *RunnerManager) startQueueTrigger(ctx context.Context) error {
	if !m.queueConfig.Enabled {
		return nil
	}

	queueName := m.queueConfig.Queue
	if queueName == "" {
		queueName = queue.DefaultQueue
	}

	config := map[string]any{
		"queue": queueName,
		"connection": map[string]any{
			"addr": m.queueConfig.Addr,
		},
	}

	trigger, err := m.registry.CreateTrigger("queue", config)
	if err != nil {
		return err
	}

	if err := trigger.Start(ctx, m.triggerCallback("queue")); err != nil {
		return err
	}

	m.triggerMutex.Lock()
	m.runningTriggers["queue"] = trigger
	m.triggerMutex.Unlock()

	m.logger.InfoContext(ctx, "Started queue trigger", "queue", queueName)

	return nil
}

// triggerCallback publishes a run request for the campaign named in the
// trigger data, so triggered runs flow through the same subscription as
// API-initiated ones.
func (m *RunnerManager) triggerCallback(source string) protocol.TriggerCallback {
	return func(ctx context.Context, data map[string]any) error {
		campaignID, _ := data[protocol.CampaignIDKey].(string)
		if campaignID == "" {
			m.logger.WarnContext(ctx, "Trigger fired without a campaign id", "source", source)

			return nil
		}

		event := events.CampaignRunRequested{
			BaseEvent: events.NewBaseEvent(events.CampaignRunRequestedEvent, campaignID),
			Source:    source,
		}
		event.WorkerID = m.id

		if requestedBy, ok := data["requested_by"].(string); ok {
			event.RequestedBy = requestedBy
		}

		if err := m.eventBus.Publish(ctx, campaignID, event); err != nil {
			m.logger.ErrorContext(ctx, "Failed to publish run request",
				"campaign_id", campaignID, "error", err)

			return err
		}

		m.logger.InfoContext(ctx, "Published run request",
			"campaign_id", campaignID, "source", source)

		return nil
	}
}

func (m *RunnerManager) stopTriggers() {
	m.triggerMutex.Lock()
	defer m.triggerMutex.Unlock()

	for id, trigger := range m.runningTriggers {
		if err := trigger.Stop(context.Background()); err != nil {
			m.logger.Error("Error stopping trigger", "trigger_id", id, "error", err)
		}
	}

	m.runningTriggers = make(map[string]protocol.Trigger)
}
