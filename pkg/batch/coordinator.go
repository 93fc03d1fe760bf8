// Package batch runs campaign batches: it walks a campaign's pending leads
// in attach order, drives each one through the campaign's graph, and keeps
// the campaign row's status and counters current while doing so.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/getleadpipe/leadpipe/pkg/engine"
	"github.com/getleadpipe/leadpipe/pkg/eventbus"
	"github.com/getleadpipe/leadpipe/pkg/events"
	"github.com/getleadpipe/leadpipe/pkg/log"
	"github.com/getleadpipe/leadpipe/pkg/metrics"
	"github.com/getleadpipe/leadpipe/pkg/models"
	"github.com/getleadpipe/leadpipe/pkg/persistence"
	"github.com/getleadpipe/leadpipe/pkg/registry"
)

// ErrCampaignNotRunnable is returned when a run is requested for a campaign
// whose status does not allow one.
var ErrCampaignNotRunnable = errors.New("campaign is not in a runnable status")

// Coordinator executes campaign batches sequentially, one lead at a time.
// It is the only writer of campaign stats while a batch runs.
type Coordinator struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	logger      *slog.Logger
	workerID    string
}

func NewCoordinator(
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	workerID string,
) *Coordinator {
	return &Coordinator{
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		logger:      logger.With("module", "batch", "worker_id", workerID),
		workerID:    workerID,
	}
}

// Run executes one batch for the campaign: every lead still pending, in
// attach order, through the graph resolved once at batch start. Per-lead
// failures are recorded on the lead's row and the batch moves on; the
// returned error is reserved for infrastructure trouble, which marks the
// campaign failed and leaves the remaining leads pending for a later run.
// A pause request takes effect at the next lead boundary.
func (c *Coordinator) Run(ctx context.Context, campaignID string) error {
	logger := log.WithCampaign(c.logger, campaignID)
	started := time.Now()

	campaign, err := c.persistence.Campaigns().GetByID(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("fetching campaign %s: %w", campaignID, err)
	}

	if campaign == nil {
		return fmt.Errorf("campaign %s: %w", campaignID, persistence.ErrCampaignNotFound)
	}

	if !campaign.Startable() {
		return fmt.Errorf("campaign %s is %s: %w", campaignID, campaign.Status, ErrCampaignNotRunnable)
	}

	spec, err := engine.SpecForCampaign(campaign, c.registry)
	if err != nil {
		return fmt.Errorf("resolving graph for campaign %s: %w", campaignID, err)
	}

	graph, err := engine.Build(ctx, spec, c.registry)
	if err != nil {
		return fmt.Errorf("building graph for campaign %s: %w", campaignID, err)
	}

	pending, err := c.persistence.CampaignLeads().ListPending(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("listing pending leads for campaign %s: %w", campaignID, err)
	}

	batchID := c.eventBus.GenerateID()
	logger = logger.With("batch_id", batchID, "graph_id", spec.ID)

	if err := c.markStarted(ctx, campaign); err != nil {
		return err
	}

	logger.InfoContext(ctx, "batch started", "pending_leads", len(pending))
	c.publish(ctx, logger, campaignID, events.CampaignStarted{
		BaseEvent:  c.newBaseEvent(events.CampaignStartedEvent, campaignID),
		BatchID:    batchID,
		TotalLeads: len(pending),
	})

	runner := engine.NewRunner(graph, logger)
	stats := campaign.Stats

	for position, campaignLead := range pending {
		fresh, err := c.syncCampaign(ctx, campaignID, stats)
		if err != nil {
			return c.failBatch(ctx, logger, campaignID, batchID, stats, started, err)
		}

		if fresh.Status == models.CampaignStatusPaused {
			remaining := len(pending) - position

			logger.InfoContext(ctx, "pause requested, stopping batch",
				"processed", position,
				"remaining", remaining,
			)
			c.publish(ctx, logger, campaignID, events.CampaignPaused{
				BaseEvent:      c.newBaseEvent(events.CampaignPausedEvent, campaignID),
				BatchID:        batchID,
				LeadsRemaining: remaining,
			})

			return nil
		}

		stats.LeadStarted()

		if _, err := c.syncCampaign(ctx, campaignID, stats); err != nil {
			return c.failBatch(ctx, logger, campaignID, batchID, stats, started, err)
		}

		leadStarted := time.Now()

		result, runErr := c.processLead(ctx, logger, campaign, runner, campaignLead)
		if runErr != nil {
			if result != nil {
				stats.LeadFinished(result)
			}

			return c.failBatch(ctx, logger, campaignID, batchID, stats, started, runErr)
		}

		stats.LeadFinished(result)

		c.publish(ctx, logger, campaignID, events.LeadProcessed{
			BaseEvent:      c.newBaseEvent(events.LeadProcessedEvent, campaignID),
			BatchID:        batchID,
			CampaignLeadID: result.ID,
			LeadID:         result.LeadID,
			Status:         result.Status,
			Sent:           result.Sent,
			VoiceCallMade:  result.VoiceCallMade,
			FailureKind:    result.FailureKind,
			Cost:           result.Cost,
			DurationMs:     time.Since(leadStarted).Milliseconds(),
			TraceID:        result.TraceID,
		})
	}

	return c.completeBatch(ctx, logger, campaignID, batchID, stats, started)
}

// processLead drives one campaign lead through the graph and writes its
// terminal result to storage. A missing lead record fails that lead only;
// the returned error is reserved for storage or flush trouble.
func (c *Coordinator) processLead(
	ctx context.Context,
	logger *slog.Logger,
	campaign *models.Campaign,
	runner *engine.Runner,
	campaignLead *models.CampaignLead,
) (*models.CampaignLead, error) {
	lead, err := c.persistence.Leads().GetByID(ctx, campaignLead.LeadID)
	if err != nil {
		return nil, fmt.Errorf("fetching lead %s: %w", campaignLead.LeadID, err)
	}

	if lead == nil {
		now := time.Now().UTC()
		campaignLead.Status = models.LeadStatusFailed
		campaignLead.FailureKind = models.FailureInternal
		campaignLead.ErrorMessage = fmt.Sprintf("lead %s: %v", campaignLead.LeadID, persistence.ErrLeadNotFound)
		campaignLead.ProcessedAt = &now

		if err := c.persistence.CampaignLeads().Save(ctx, campaignLead); err != nil {
			return nil, fmt.Errorf("saving result for lead %s: %w", campaignLead.LeadID, err)
		}

		logger.WarnContext(ctx, "lead record missing, marked failed", "lead_id", campaignLead.LeadID)

		return campaignLead, nil
	}

	state := models.NewExecutionState(campaign, campaignLead, lead)
	runErr := runner.Run(ctx, state)

	applyRunResult(campaignLead, state)

	if err := c.persistence.CampaignLeads().Save(ctx, campaignLead); err != nil {
		return nil, fmt.Errorf("saving result for lead %s: %w", campaignLead.LeadID, err)
	}

	if runErr != nil {
		return campaignLead, runErr
	}

	return campaignLead, nil
}

// markStarted moves the campaign into processing. StartedAt is kept across
// pause and resume, so it records the first batch's start.
func (c *Coordinator) markStarted(ctx context.Context, campaign *models.Campaign) error {
	campaign.Status = models.CampaignStatusProcessing

	if campaign.StartedAt == nil {
		now := time.Now().UTC()
		campaign.StartedAt = &now
	}

	if err := c.persistence.Campaigns().Save(ctx, campaign); err != nil {
		return fmt.Errorf("marking campaign %s processing: %w", campaign.ID, err)
	}

	return nil
}

// syncCampaign folds the batch's counters into the freshest campaign row and
// writes it back. Reloading first keeps status changes made through the API
// while a lead was running, pause requests in particular, from being lost
// under the stats write.
func (c *Coordinator) syncCampaign(ctx context.Context, campaignID string, stats models.CampaignStats) (*models.Campaign, error) {
	campaign, err := c.persistence.Campaigns().GetByID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("reloading campaign %s: %w", campaignID, err)
	}

	if campaign == nil {
		return nil, fmt.Errorf("campaign %s vanished mid-batch: %w", campaignID, persistence.ErrCampaignNotFound)
	}

	campaign.Stats = stats

	if err := c.persistence.Campaigns().Save(ctx, campaign); err != nil {
		return nil, fmt.Errorf("saving campaign %s: %w", campaignID, err)
	}

	return campaign, nil
}

func (c *Coordinator) completeBatch(
	ctx context.Context,
	logger *slog.Logger,
	campaignID, batchID string,
	stats models.CampaignStats,
	started time.Time,
) error {
	campaign, err := c.syncCampaign(ctx, campaignID, stats)
	if err != nil {
		return c.failBatch(ctx, logger, campaignID, batchID, stats, started, err)
	}

	now := time.Now().UTC()
	campaign.Status = models.CampaignStatusCompleted
	campaign.CompletedAt = &now

	if err := c.persistence.Campaigns().Save(ctx, campaign); err != nil {
		return c.failBatch(ctx, logger, campaignID, batchID, stats, started,
			fmt.Errorf("marking campaign %s completed: %w", campaignID, err))
	}

	elapsed := time.Since(started)
	metrics.BatchDuration.Observe(elapsed.Seconds())

	logger.InfoContext(ctx, "batch completed",
		"completed", stats.Completed,
		"failed", stats.Failed,
		"sent", stats.Sent,
		"duration", elapsed,
	)
	c.publish(ctx, logger, campaignID, events.CampaignCompleted{
		BaseEvent:  c.newBaseEvent(events.CampaignCompletedEvent, campaignID),
		BatchID:    batchID,
		Stats:      stats,
		DurationMs: elapsed.Milliseconds(),
	})

	return nil
}

// failBatch records an infrastructure failure: the campaign is marked failed
// and whatever leads were not reached stay pending for a later run.
func (c *Coordinator) failBatch(
	ctx context.Context,
	logger *slog.Logger,
	campaignID, batchID string,
	stats models.CampaignStats,
	started time.Time,
	cause error,
) error {
	logger.ErrorContext(ctx, "batch aborted", "error", cause)

	campaign, err := c.persistence.Campaigns().GetByID(ctx, campaignID)

	switch {
	case err != nil:
		logger.ErrorContext(ctx, "could not reload campaign to mark it failed", "error", err)
	case campaign == nil:
		logger.ErrorContext(ctx, "campaign row gone, cannot mark it failed")
	default:
		campaign.Stats = stats
		campaign.Status = models.CampaignStatusFailed

		if saveErr := c.persistence.Campaigns().Save(ctx, campaign); saveErr != nil {
			logger.ErrorContext(ctx, "could not mark campaign failed", "error", saveErr)
		}
	}

	elapsed := time.Since(started)
	metrics.BatchDuration.Observe(elapsed.Seconds())

	c.publish(ctx, logger, campaignID, events.CampaignFailed{
		BaseEvent:  c.newBaseEvent(events.CampaignFailedEvent, campaignID),
		BatchID:    batchID,
		Error:      cause.Error(),
		DurationMs: elapsed.Milliseconds(),
	})

	return cause
}

// publish emits a lifecycle event. Publish failures are logged and swallowed,
// they never stop the batch.
func (c *Coordinator) publish(ctx context.Context, logger *slog.Logger, campaignID string, event eventbus.Event) {
	if err := c.eventBus.Publish(ctx, campaignID, event); err != nil {
		logger.WarnContext(ctx, "event publish failed",
			"event_type", string(event.GetType()),
			"error", err,
		)
	}
}

func (c *Coordinator) newBaseEvent(eventType events.EventType, campaignID string) events.BaseEvent {
	base := events.NewBaseEvent(eventType, campaignID)
	base.WorkerID = c.workerID

	return base
}

// applyRunResult copies the terminal execution state onto the stored
// campaign-lead row.
func applyRunResult(campaignLead *models.CampaignLead, state *models.ExecutionState) {
	now := time.Now().UTC()

	campaignLead.Status = state.Status()
	campaignLead.Sent = state.Sent()
	campaignLead.Message = state.OutboundMessage()
	campaignLead.DeliveryResponse = state.DeliveryResponse()
	campaignLead.VoiceCallMade = state.VoiceCallMade()
	campaignLead.VoiceCallID = state.VoiceCallID()
	campaignLead.FailureKind = state.FailureKind()
	campaignLead.ErrorMessage = state.ErrorMessage()
	campaignLead.TraceID = state.TraceID
	campaignLead.Cost = state.Cost()
	campaignLead.ProcessedAt = &now
}
