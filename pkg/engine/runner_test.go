package engine_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getleadpipe/leadpipe/pkg/engine"
	"github.com/getleadpipe/leadpipe/pkg/models"
	"github.com/getleadpipe/leadpipe/pkg/protocol"
	"github.com/getleadpipe/leadpipe/pkg/registry"
)

type scriptedNode struct {
	typ string
	run func(ctx context.Context, state *models.ExecutionState) error
}

func (n *scriptedNode) Type() string {
	return n.typ
}

func (n *scriptedNode) Run(ctx context.Context, state *models.ExecutionState) error {
	if n.run == nil {
		return nil
	}

	return n.run(ctx, state)
}

type stubFactory struct {
	id  string
	run func(ctx context.Context, state *models.ExecutionState) error
}

func (f *stubFactory) Create(ctx context.Context, config map[string]any) (protocol.Node, error) {
	return &scriptedNode{typ: f.id, run: f.run}, nil
}

func (f *stubFactory) ID() string { return f.id }

func (f *stubFactory) Name() string { return f.id }

func (f *stubFactory) Description() string { return "scripted test node" }

func (f *stubFactory) Schema() map[string]any { return map[string]any{} }

func newStubRegistry(behaviors map[string]func(ctx context.Context, state *models.ExecutionState) error, ids ...string) *registry.Registry {
	reg := registry.NewRegistry(slog.Default())

	for _, id := range ids {
		reg.RegisterNode(&stubFactory{id: id, run: behaviors[id]})
	}

	return reg
}

// markingFinalize mimics the real finalize node's status decision so runner
// tests exercise the terminal-status guarantee.
func markingFinalize(ctx context.Context, state *models.ExecutionState) error {
	smsPending := state.Channels.Has(models.ChannelSMS) && !state.Sent()

	if state.ValidationPassed() && len(state.Failures()) == 0 && !smsPending {
		return state.MarkCompleted()
	}

	message := "incomplete"
	if failures := state.Failures(); len(failures) > 0 {
		message = failures[0].Message
	}

	return state.MarkFailed(message)
}

func newRunState(t *testing.T) *models.ExecutionState {
	t.Helper()

	campaign := &models.Campaign{
		ID:       "camp-1",
		Name:     "Spring Launch",
		Channels: models.ChannelSet{models.ChannelSMS},
		Roles:    models.SingleRole(models.AgentConfig{SystemPrompt: "You are an SDR."}),
	}
	lead := &models.Lead{ID: "lead-1", Name: "Ada Lovelace", Phone: "+14155550100"}
	campaignLead := &models.CampaignLead{ID: "cl-1", CampaignID: campaign.ID, LeadID: lead.ID}

	return models.NewExecutionState(campaign, campaignLead, lead)
}

func buildRunner(t *testing.T, spec *engine.GraphSpec, behaviors map[string]func(ctx context.Context, state *models.ExecutionState) error) *engine.Runner {
	t.Helper()

	ids := make([]string, 0, len(spec.Nodes))
	for _, node := range spec.Nodes {
		ids = append(ids, string(node.Type))
	}

	reg := newStubRegistry(behaviors, ids...)

	graph, err := engine.Build(context.Background(), spec, reg)
	require.NoError(t, err)

	return engine.NewRunner(graph, slog.Default())
}

func TestRunner_Run_CompletesHappyPath(t *testing.T) {
	spec, err := engine.FixedPipeline(models.ChannelSet{models.ChannelSMS})
	require.NoError(t, err)

	finalizeCalls := 0
	behaviors := map[string]func(ctx context.Context, state *models.ExecutionState) error{
		"validate": func(ctx context.Context, state *models.ExecutionState) error {
			state.SetValidation(true, nil)

			return nil
		},
		"generate": func(ctx context.Context, state *models.ExecutionState) error {
			state.SetMessage("Hi Ada!")
			state.AddCost(0.000012)

			return nil
		},
		"deliver": func(ctx context.Context, state *models.ExecutionState) error {
			state.MarkSent("ref-1")

			return nil
		},
		"finalize": func(ctx context.Context, state *models.ExecutionState) error {
			finalizeCalls++

			return markingFinalize(ctx, state)
		},
	}

	runner := buildRunner(t, spec, behaviors)
	state := newRunState(t)

	require.NoError(t, runner.Run(context.Background(), state))

	assert.Equal(t, models.LeadStatusCompleted, state.Status())
	assert.Equal(t, 1, finalizeCalls)
	assert.True(t, state.Sent())
	assert.NotEmpty(t, state.TraceID)
}

func TestRunner_Run_ValidationFailureSkipsDownstream(t *testing.T) {
	spec, err := engine.FixedPipeline(models.ChannelSet{models.ChannelSMS})
	require.NoError(t, err)

	generateCalls := 0
	finalizeCalls := 0
	behaviors := map[string]func(ctx context.Context, state *models.ExecutionState) error{
		"validate": func(ctx context.Context, state *models.ExecutionState) error {
			state.SetValidation(false, []string{"phone required"})

			return nil
		},
		"generate": func(ctx context.Context, state *models.ExecutionState) error {
			generateCalls++

			return nil
		},
		"finalize": func(ctx context.Context, state *models.ExecutionState) error {
			finalizeCalls++

			return state.MarkFailed("validation failed: phone required")
		},
	}

	runner := buildRunner(t, spec, behaviors)
	state := newRunState(t)

	require.NoError(t, runner.Run(context.Background(), state))

	assert.Equal(t, models.LeadStatusFailed, state.Status())
	assert.Zero(t, generateCalls)
	assert.Equal(t, 1, finalizeCalls)
	assert.Equal(t, "validation failed: phone required", state.ErrorMessage())
}

func TestRunner_Run_NodeErrorRoutesToFinalize(t *testing.T) {
	spec, err := engine.FixedPipeline(models.ChannelSet{models.ChannelSMS})
	require.NoError(t, err)

	finalizeCalls := 0
	behaviors := map[string]func(ctx context.Context, state *models.ExecutionState) error{
		"validate": func(ctx context.Context, state *models.ExecutionState) error {
			state.SetValidation(true, nil)

			return nil
		},
		"generate": func(ctx context.Context, state *models.ExecutionState) error {
			return engine.NewGenerationError("agent", "gpt-4o-mini", errors.New("rate limited"))
		},
		"finalize": func(ctx context.Context, state *models.ExecutionState) error {
			finalizeCalls++

			return markingFinalize(ctx, state)
		},
	}

	runner := buildRunner(t, spec, behaviors)
	state := newRunState(t)

	require.NoError(t, runner.Run(context.Background(), state))

	assert.Equal(t, models.LeadStatusFailed, state.Status())
	assert.Equal(t, 1, finalizeCalls)
	assert.Equal(t, models.FailureGeneration, state.FailureKind())
	assert.Contains(t, state.ErrorMessage(), "rate limited")
}

func TestRunner_Run_StepCeilingOverrun(t *testing.T) {
	nodes := []engine.NodeSpec{
		{ID: "generate", Type: engine.NodeGenerate},
		{ID: "deliver", Type: engine.NodeDeliver},
		{ID: "finalize", Type: engine.NodeFinalize},
	}
	edges := []engine.EdgeSpec{
		{Source: "generate", Target: "deliver"},
		{Source: "deliver", Target: "generate", When: engine.ConditionNotSent},
		{Source: "deliver", Target: "finalize"},
	}

	spec, err := engine.NewGraphSpec("looping", "generate", nodes, edges)
	require.NoError(t, err)

	finalizeCalls := 0
	behaviors := map[string]func(ctx context.Context, state *models.ExecutionState) error{
		"finalize": func(ctx context.Context, state *models.ExecutionState) error {
			finalizeCalls++

			return markingFinalize(ctx, state)
		},
	}

	runner := buildRunner(t, spec, behaviors)
	runner.MaxSteps = 6

	state := newRunState(t)

	require.NoError(t, runner.Run(context.Background(), state))

	assert.Equal(t, models.LeadStatusFailed, state.Status())
	assert.Equal(t, 1, finalizeCalls)
	assert.Equal(t, models.FailureOverrun, state.FailureKind())
	assert.Contains(t, state.ErrorMessage(), "step ceiling")
}

func TestRunner_Run_RecoversNodePanic(t *testing.T) {
	spec, err := engine.FixedPipeline(models.ChannelSet{models.ChannelSMS})
	require.NoError(t, err)

	behaviors := map[string]func(ctx context.Context, state *models.ExecutionState) error{
		"validate": func(ctx context.Context, state *models.ExecutionState) error {
			state.SetValidation(true, nil)

			return nil
		},
		"generate": func(ctx context.Context, state *models.ExecutionState) error {
			panic("template exploded")
		},
		"finalize": markingFinalize,
	}

	runner := buildRunner(t, spec, behaviors)
	state := newRunState(t)

	require.NoError(t, runner.Run(context.Background(), state))

	assert.Equal(t, models.LeadStatusFailed, state.Status())
	assert.Equal(t, models.FailureInternal, state.FailureKind())
	assert.Contains(t, state.ErrorMessage(), "panicked")
}

func TestRunner_Run_FinalizeFlushErrorSurfaces(t *testing.T) {
	spec, err := engine.FixedPipeline(models.ChannelSet{models.ChannelSMS})
	require.NoError(t, err)

	behaviors := map[string]func(ctx context.Context, state *models.ExecutionState) error{
		"validate": func(ctx context.Context, state *models.ExecutionState) error {
			state.SetValidation(true, nil)

			return nil
		},
		"generate": func(ctx context.Context, state *models.ExecutionState) error {
			state.SetMessage("Hi Ada!")

			return nil
		},
		"deliver": func(ctx context.Context, state *models.ExecutionState) error {
			state.MarkSent("ref-1")

			return nil
		},
		"finalize": func(ctx context.Context, state *models.ExecutionState) error {
			return errors.New("database gone")
		},
	}

	runner := buildRunner(t, spec, behaviors)
	state := newRunState(t)

	err = runner.Run(context.Background(), state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "finalizing lead")

	// the run still ends in a terminal status
	assert.Equal(t, models.LeadStatusFailed, state.Status())
}

func TestRunner_Run_RejectsReusedState(t *testing.T) {
	spec, err := engine.FixedPipeline(models.ChannelSet{models.ChannelSMS})
	require.NoError(t, err)

	behaviors := map[string]func(ctx context.Context, state *models.ExecutionState) error{
		"validate": func(ctx context.Context, state *models.ExecutionState) error {
			state.SetValidation(true, nil)

			return nil
		},
		"generate": func(ctx context.Context, state *models.ExecutionState) error {
			state.SetMessage("Hi Ada!")

			return nil
		},
		"deliver": func(ctx context.Context, state *models.ExecutionState) error {
			state.MarkSent("ref-1")

			return nil
		},
		"finalize": markingFinalize,
	}

	runner := buildRunner(t, spec, behaviors)
	state := newRunState(t)

	require.NoError(t, runner.Run(context.Background(), state))

	err = runner.Run(context.Background(), state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting run")
}
