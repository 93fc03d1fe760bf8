package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/getleadpipe/leadpipe/pkg/metrics"
	"github.com/getleadpipe/leadpipe/pkg/models"
	"github.com/getleadpipe/leadpipe/pkg/otelhelper"
	"github.com/getleadpipe/leadpipe/pkg/protocol"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxSteps bounds a run against misconfigured cycles in dynamic
// graphs; real campaign shapes finish in well under a dozen steps.
const DefaultMaxSteps = 32

// Runner drives one execution state through a graph, from the entry node to
// the unique finalize node. Execution is synchronous and single-threaded per
// lead.
type Runner struct {
	// MaxSteps is the visited-step ceiling before the run is aborted with a
	// GraphOverrunError.
	MaxSteps int

	graph  *Graph
	logger *slog.Logger
	tracer trace.Tracer
}

func NewRunner(graph *Graph, logger *slog.Logger) *Runner {
	return &Runner{
		MaxSteps: DefaultMaxSteps,
		graph:    graph,
		logger:   logger.With("module", "engine", "graph_id", graph.Spec.ID),
		tracer:   otel.Tracer("leadpipe/engine"),
	}
}

// Run executes one lead's run. Node failures never escape: they are
// classified, recorded on the state, and the run still reaches exactly one
// finalize invocation, so the state always carries a terminal status
// afterwards. The returned error is reserved for infrastructure trouble
// (the finalize flush failing, a state that was not fresh); callers treat it
// as a reason to stop the batch, not as a per-lead verdict.
func (r *Runner) Run(ctx context.Context, state *models.ExecutionState) error {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "engine.run",
		attribute.String(otelhelper.CampaignIDKey, state.CampaignID),
		attribute.String(otelhelper.LeadIDKey, state.LeadID),
		attribute.String(otelhelper.GraphIDKey, r.graph.Spec.ID),
	)
	defer span.End()

	r.tagTrace(span, state)

	logger := r.logger.With("lead_id", state.LeadID, "trace_id", state.TraceID)

	if err := state.MarkProcessing(); err != nil {
		return fmt.Errorf("starting run: %w", err)
	}

	logger.DebugContext(ctx, "run started", "entry", r.graph.Spec.Entry)

	finalizeID := r.graph.Spec.FinalizeID()
	current := r.graph.Spec.Entry
	steps := 0

	for current != finalizeID {
		node, ok := r.graph.Node(current)
		if !ok {
			r.failRun(ctx, logger, span, state, current,
				fmt.Errorf("node %q missing from compiled graph", current))

			break
		}

		steps++
		if steps > r.MaxSteps {
			r.failRun(ctx, logger, span, state, current, &GraphOverrunError{
				GraphID:  r.graph.Spec.ID,
				Steps:    steps,
				Limit:    r.MaxSteps,
				LastNode: current,
			})

			break
		}

		if err := r.runNode(ctx, node, state); err != nil {
			r.failRun(ctx, logger, span, state, current, err)

			break
		}

		next, err := r.graph.Spec.NextNode(current, state)
		if err != nil {
			r.failRun(ctx, logger, span, state, current, err)

			break
		}

		current = next
	}

	return r.finish(ctx, logger, span, state, finalizeID, steps)
}

// runNode executes one node, recovering panics into ordinary node failures.
func (r *Runner) runNode(ctx context.Context, node protocol.Node, state *models.ExecutionState) (err error) {
	start := time.Now()

	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("node %s panicked: %v", node.Type(), recovered)
		}

		outcome := "success"
		if err != nil {
			outcome = "failure"
		}

		metrics.ObserveNode(node.Type(), outcome, time.Since(start))
	}()

	return node.Run(ctx, state)
}

func (r *Runner) failRun(ctx context.Context, logger *slog.Logger, span trace.Span, state *models.ExecutionState, nodeID string, err error) {
	kind := ClassifyFailure(err)

	state.RecordFailure(kind, err.Error())
	state.AppendLog(models.LogLevelError, nodeID, err.Error(), map[string]any{
		"failure_kind": string(kind),
	})

	otelhelper.SetError(span, err, attribute.String(otelhelper.NodeTypeKey, nodeID))
	logger.ErrorContext(ctx, "node execution failed",
		"node", nodeID,
		"failure_kind", string(kind),
		"error", err,
	)
}

// finish runs the finalize node exactly once and guarantees a terminal
// status on exit.
func (r *Runner) finish(ctx context.Context, logger *slog.Logger, span trace.Span, state *models.ExecutionState, finalizeID string, steps int) error {
	node, ok := r.graph.Node(finalizeID)
	if !ok {
		if markErr := state.MarkFailed("finalize node missing from compiled graph"); markErr != nil {
			logger.ErrorContext(ctx, "could not mark run failed", "error", markErr)
		}

		return fmt.Errorf("finalize node %q missing from compiled graph", finalizeID)
	}

	if err := r.runNode(ctx, node, state); err != nil {
		if !state.Finalized() {
			if markErr := state.MarkFailed(err.Error()); markErr != nil {
				logger.ErrorContext(ctx, "could not mark run failed", "error", markErr)
			}
		}

		otelhelper.SetError(span, err)

		return fmt.Errorf("finalizing lead %s: %w", state.LeadID, err)
	}

	if !state.Finalized() {
		if markErr := state.MarkFailed("finalize did not settle a terminal status"); markErr != nil {
			logger.ErrorContext(ctx, "could not mark run failed", "error", markErr)
		}
	}

	metrics.LeadsProcessed.WithLabelValues(string(state.Status())).Inc()
	metrics.GenerationCost.Add(state.Cost())

	logger.InfoContext(ctx, "run finished",
		"status", string(state.Status()),
		"steps", steps,
		"sent", state.Sent(),
		"cost", state.Cost(),
	)

	return nil
}

func (r *Runner) tagTrace(span trace.Span, state *models.ExecutionState) {
	if state.TraceID != "" {
		return
	}

	if spanCtx := span.SpanContext(); spanCtx.HasTraceID() {
		state.TraceID = spanCtx.TraceID().String()

		return
	}

	state.TraceID = "run-" + uuid.New().String()[:8]
}
