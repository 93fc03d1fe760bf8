package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getleadpipe/leadpipe/pkg/engine"
	"github.com/getleadpipe/leadpipe/pkg/models"
)

func storedDefinition() *models.GraphDefinition {
	return &models.GraphDefinition{
		Nodes: []models.GraphDefNode{
			{ID: "start-1", Type: "start"},
			{ID: "check", Type: "validate"},
			{ID: "draft", Type: "generate"},
			{ID: "send", Type: "deliver"},
			{ID: "done", Type: "finalize"},
		},
		Edges: []models.GraphDefEdge{
			{Source: "start-1", Target: "check"},
			{Source: "check", Target: "draft", Condition: "validated"},
			{Source: "check", Target: "done"},
			{Source: "draft", Target: "send"},
			{Source: "send", Target: "done"},
		},
	}
}

func TestCompile_StoredDefinition(t *testing.T) {
	reg := newStubRegistry(nil, "validate", "generate", "deliver", "finalize")

	spec, err := engine.Compile(storedDefinition(), reg)
	require.NoError(t, err)

	assert.Equal(t, "dynamic", spec.ID)
	assert.Equal(t, "check", spec.Entry)
	assert.Equal(t, "done", spec.FinalizeID())
	assert.Len(t, spec.Nodes, 4)

	_, ok := spec.Node("start-1")
	assert.False(t, ok, "start marker must not survive compilation")

	node, ok := spec.Node("check")
	require.True(t, ok)
	assert.Equal(t, engine.NodeValidate, node.Type)
}

func TestCompile_IsDeterministic(t *testing.T) {
	reg := newStubRegistry(nil, "validate", "generate", "deliver", "finalize")

	first, err := engine.Compile(storedDefinition(), reg)
	require.NoError(t, err)

	second, err := engine.Compile(storedDefinition(), reg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCompile_CarriesNodeConfig(t *testing.T) {
	reg := newStubRegistry(nil, "validate", "finalize")

	def := &models.GraphDefinition{
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

	spec, err := engine.Compile(def, reg)
	require.NoError(t, err)

	node, ok := spec.Node("check")
	require.True(t, ok)
	assert.Equal(t, true, node.Config["enforce_working_hours"])
}

func TestCompile_UnknownNodeType(t *testing.T) {
	reg := newStubRegistry(nil, "validate", "finalize")

	def := storedDefinition()
	def.Nodes[2].Type = "transmogrify"

	_, err := engine.Compile(def, reg)
	require.Error(t, err)
	assert.True(t, engine.IsGraphConfigError(err))
	assert.Contains(t, err.Error(), `node "draft"`)
	assert.Contains(t, err.Error(), `unknown node type "transmogrify"`)
}

func TestCompile_MissingFinalize(t *testing.T) {
	reg := newStubRegistry(nil, "validate", "generate", "deliver", "finalize")

	def := &models.GraphDefinition{
		Nodes: []models.GraphDefNode{
			{ID: "start-1", Type: "start"},
			{ID: "check", Type: "validate"},
		},
		Edges: []models.GraphDefEdge{
			{Source: "start-1", Target: "check"},
		},
	}

	_, err := engine.Compile(def, reg)
	require.Error(t, err)
	assert.True(t, engine.IsGraphConfigError(err))
	assert.Contains(t, err.Error(), "no finalize node")
}

func TestCompile_UnknownCondition(t *testing.T) {
	reg := newStubRegistry(nil, "validate", "generate", "deliver", "finalize")

	def := storedDefinition()
	def.Edges[1].Condition = "when_pigs_fly"

	_, err := engine.Compile(def, reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check -> draft")
	assert.Contains(t, err.Error(), `unknown condition "when_pigs_fly"`)
}

func TestCompile_StartMarkerRules(t *testing.T) {
	reg := newStubRegistry(nil, "validate", "generate", "deliver", "finalize")

	t.Run("missing start marker", func(t *testing.T) {
		def := storedDefinition()
		def.Nodes = def.Nodes[1:]
		def.Edges = def.Edges[1:]

		_, err := engine.Compile(def, reg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no start marker")
	})

	t.Run("two start markers", func(t *testing.T) {
		def := storedDefinition()
		def.Nodes = append(def.Nodes, models.GraphDefNode{ID: "start-2", Type: "start"})

		_, err := engine.Compile(def, reg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "more than one start marker")
	})

	t.Run("start marker with two outgoing edges", func(t *testing.T) {
		def := storedDefinition()
		def.Edges = append(def.Edges, models.GraphDefEdge{Source: "start-1", Target: "draft"})

		_, err := engine.Compile(def, reg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exactly one outgoing edge")
	})

	t.Run("start marker as edge target", func(t *testing.T) {
		def := storedDefinition()
		def.Edges = append(def.Edges, models.GraphDefEdge{Source: "send", Target: "start-1", Condition: "not_sent"})

		_, err := engine.Compile(def, reg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be an edge target")
	})
}

func TestCompile_MalformedDocument(t *testing.T) {
	reg := newStubRegistry(nil, "validate", "finalize")

	def := &models.GraphDefinition{
		Nodes: []models.GraphDefNode{
			{ID: "check"},
		},
	}

	_, err := engine.Compile(def, reg)
	require.Error(t, err)
	assert.True(t, engine.IsGraphConfigError(err))
	assert.Contains(t, err.Error(), "malformed definition")
}

func TestCompile_NilDefinition(t *testing.T) {
	reg := newStubRegistry(nil, "validate", "finalize")

	_, err := engine.Compile(nil, reg)
	require.Error(t, err)
	assert.True(t, engine.IsGraphConfigError(err))
}

func TestSpecForCampaign_ShapePriority(t *testing.T) {
	reg := newStubRegistry(nil, "validate", "generate", "deliver", "finalize")

	dual := &models.Campaign{
		Channels: models.ChannelSet{models.ChannelSMS},
		Roles: models.DualRole(
			models.AgentConfig{SystemPrompt: "Be witty."},
			models.AgentConfig{SystemPrompt: "Send exactly what you are given."},
		),
		Graph: storedDefinition(),
	}

	spec, err := engine.SpecForCampaign(dual, reg)
	require.NoError(t, err)
	assert.Equal(t, "dual-role", spec.ID, "dual-role campaigns ignore stored graphs")

	stored := &models.Campaign{
		Channels: models.ChannelSet{models.ChannelSMS},
		Roles:    models.SingleRole(models.AgentConfig{SystemPrompt: "You are an SDR."}),
		Graph:    storedDefinition(),
	}

	spec, err = engine.SpecForCampaign(stored, reg)
	require.NoError(t, err)
	assert.Equal(t, "dynamic", spec.ID)

	fixed := &models.Campaign{
		Channels: models.ChannelSet{models.ChannelSMS, models.ChannelVoice},
		Roles:    models.SingleRole(models.AgentConfig{SystemPrompt: "You are an SDR."}),
	}

	spec, err = engine.SpecForCampaign(fixed, reg)
	require.NoError(t, err)
	assert.Equal(t, "fixed", spec.ID)
}
