package engine

import (
	"fmt"
	"strings"

	"github.com/getleadpipe/leadpipe/pkg/models"
	"github.com/getleadpipe/leadpipe/pkg/registry"
	"github.com/xeipuuv/gojsonschema"
)

// definitionSchema shapes the stored graph document before structural
// validation runs.
var definitionSchema = map[string]any{
	"type":     "object",
	"required": []string{"nodes"},
	"properties": map[string]any{
		"nodes": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []string{"id", "type"},
				"properties": map[string]any{
					"id":   map[string]any{"type": "string", "minLength": 1},
					"type": map[string]any{"type": "string", "minLength": 1},
					"data": map[string]any{"type": "object"},
				},
			},
		},
		"edges": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"source", "target"},
				"properties": map[string]any{
					"source":    map[string]any{"type": "string", "minLength": 1},
					"target":    map[string]any{"type": "string", "minLength": 1},
					"condition": map[string]any{"type": "string"},
				},
			},
		},
	},
}

// Compile turns a stored, user-authored graph definition into the GraphSpec
// the runner consumes. Every referenced node type must exist in the registry;
// the start marker declares the entry and is dropped from the compiled graph.
// Compilation is deterministic: the same definition always yields a
// structurally identical spec. Any rejection is a GraphConfigError naming the
// offending node or edge and blocks the campaign from starting.
func Compile(def *models.GraphDefinition, reg *registry.Registry) (*GraphSpec, error) {
	if def == nil {
		return nil, newGraphConfigError("no graph definition stored")
	}

	if err := validateDefinitionDocument(def); err != nil {
		return nil, err
	}

	entry, err := resolveEntry(def)
	if err != nil {
		return nil, err
	}

	nodes := make([]NodeSpec, 0, len(def.Nodes)-1)

	for _, node := range def.Nodes {
		if NodeType(node.Type) == StartMarker {
			continue
		}

		if !reg.HasNode(node.Type) {
			return nil, newNodeConfigError(node.ID, fmt.Sprintf("unknown node type %q", node.Type))
		}

		nodes = append(nodes, NodeSpec{ID: node.ID, Type: NodeType(node.Type), Config: node.Data})
	}

	edges := make([]EdgeSpec, 0, len(def.Edges))

	for _, edge := range def.Edges {
		if isStartMarker(def, edge.Source) {
			continue
		}

		if isStartMarker(def, edge.Target) {
			return nil, newEdgeConfigError(edge.Source, edge.Target, "start marker cannot be an edge target")
		}

		edges = append(edges, EdgeSpec{Source: edge.Source, Target: edge.Target, When: edge.Condition})
	}

	return NewGraphSpec("dynamic", entry, nodes, edges)
}

func validateDefinitionDocument(def *models.GraphDefinition) error {
	schemaLoader := gojsonschema.NewGoLoader(definitionSchema)
	documentLoader := gojsonschema.NewGoLoader(def)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validating graph definition: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			details = append(details, resultErr.String())
		}

		return newGraphConfigError("malformed definition: " + strings.Join(details, "; "))
	}

	return nil
}

// resolveEntry finds the single start marker and follows its only outgoing
// edge to the declared entry node.
func resolveEntry(def *models.GraphDefinition) (string, error) {
	startID := ""

	for _, node := range def.Nodes {
		if NodeType(node.Type) != StartMarker {
			continue
		}

		if startID != "" {
			return "", newNodeConfigError(node.ID, "more than one start marker declared")
		}

		startID = node.ID
	}

	if startID == "" {
		return "", newGraphConfigError("graph has no start marker")
	}

	entry := ""

	for _, edge := range def.Edges {
		if edge.Source != startID {
			continue
		}

		if entry != "" {
			return "", newEdgeConfigError(edge.Source, edge.Target, "start marker must have exactly one outgoing edge")
		}

		entry = edge.Target
	}

	if entry == "" {
		return "", newNodeConfigError(startID, "start marker has no outgoing edge")
	}

	return entry, nil
}

func isStartMarker(def *models.GraphDefinition, nodeID string) bool {
	for _, node := range def.Nodes {
		if node.ID == nodeID {
			return NodeType(node.Type) == StartMarker
		}
	}

	return false
}

// SpecForCampaign builds the graph shape a campaign runs: the dual-role
// pipeline when the campaign carries a creative/deterministic pair, the
// compiled stored definition when one is present, otherwise the fixed
// pipeline.
func SpecForCampaign(campaign *models.Campaign, reg *registry.Registry) (*GraphSpec, error) {
	switch {
	case campaign.Roles.IsDual():
		return DualRolePipeline(campaign.Channels)
	case campaign.Graph != nil:
		return Compile(campaign.Graph, reg)
	default:
		return FixedPipeline(campaign.Channels)
	}
}
