package engine

import (
	"fmt"

	"github.com/getleadpipe/leadpipe/pkg/models"
)

// NodeType tags the processing step a graph node performs.
type NodeType string

const (
	NodeValidate NodeType = "validate"
	NodeGenerate NodeType = "generate"
	NodeDeliver  NodeType = "deliver"
	NodeVoice    NodeType = "voice"
	NodeHandoff  NodeType = "handoff"
	NodeFinalize NodeType = "finalize"

	// StartMarker is the declared-entry pseudo-type in stored definitions.
	// It is resolved by the compiler and never instantiated.
	StartMarker NodeType = "start"
)

// NodeSpec declares one node of a graph.
type NodeSpec struct {
	ID     string         `json:"id"`
	Type   NodeType       `json:"type"`
	Config map[string]any `json:"config,omitempty"`
}

// EdgeSpec connects two nodes. When is a condition tag; the empty tag marks
// the default edge, which must be declared last for its source.
type EdgeSpec struct {
	Source string `json:"source"`
	Target string `json:"target"`
	When   string `json:"when,omitempty"`
}

// GraphSpec is a validated node/edge definition. Static shapes are
// constructed already valid; dynamic definitions pass through the compiler,
// which funnels into the same validation. A GraphSpec is built once per
// campaign batch and reused unchanged across all of its leads.
type GraphSpec struct {
	ID    string     `json:"id"`
	Entry string     `json:"entry"`
	Nodes []NodeSpec `json:"nodes"`
	Edges []EdgeSpec `json:"edges"`

	nodesByID map[string]NodeSpec
	adjacency map[string][]EdgeSpec
}

// NewGraphSpec indexes and validates a graph definition. Violated invariants
// come back as a GraphConfigError naming the offending node or edge.
func NewGraphSpec(id, entry string, nodes []NodeSpec, edges []EdgeSpec) (*GraphSpec, error) {
	spec := &GraphSpec{
		ID:        id,
		Entry:     entry,
		Nodes:     nodes,
		Edges:     edges,
		nodesByID: make(map[string]NodeSpec, len(nodes)),
		adjacency: make(map[string][]EdgeSpec),
	}

	for _, node := range nodes {
		if node.ID == "" {
			return nil, newGraphConfigError("node with empty id")
		}

		if _, dup := spec.nodesByID[node.ID]; dup {
			return nil, newNodeConfigError(node.ID, "duplicate node id")
		}

		spec.nodesByID[node.ID] = node
	}

	for _, edge := range edges {
		spec.adjacency[edge.Source] = append(spec.adjacency[edge.Source], edge)
	}

	if err := spec.validate(); err != nil {
		return nil, err
	}

	return spec, nil
}

// Node returns the declared node spec for an id.
func (s *GraphSpec) Node(id string) (NodeSpec, bool) {
	node, ok := s.nodesByID[id]

	return node, ok
}

// FinalizeID returns the id of the graph's unique finalize node.
func (s *GraphSpec) FinalizeID() string {
	for _, node := range s.Nodes {
		if node.Type == NodeFinalize {
			return node.ID
		}
	}

	return ""
}

// NextNode routes from a node by evaluating its outgoing edge conditions in
// declaration order; the first match wins. It observes state and has no side
// effects.
func (s *GraphSpec) NextNode(nodeID string, state *models.ExecutionState) (string, error) {
	for _, edge := range s.adjacency[nodeID] {
		if evalCondition(edge.When, state) {
			return edge.Target, nil
		}
	}

	return "", fmt.Errorf("no edge matched from node %q", nodeID)
}

func (s *GraphSpec) validate() error {
	if len(s.Nodes) == 0 {
		return newGraphConfigError("graph has no nodes")
	}

	if s.Entry == "" {
		return newGraphConfigError("graph has no entry node")
	}

	if _, ok := s.nodesByID[s.Entry]; !ok {
		return newNodeConfigError(s.Entry, "entry node is not declared")
	}

	finalizeID, err := s.validateFinalize()
	if err != nil {
		return err
	}

	if err := s.validateEdges(); err != nil {
		return err
	}

	if err := s.validateReachability(finalizeID); err != nil {
		return err
	}

	return s.validateHandoff()
}

func (s *GraphSpec) validateFinalize() (string, error) {
	finalizeID := ""

	for _, node := range s.Nodes {
		if node.Type != NodeFinalize {
			continue
		}

		if finalizeID != "" {
			return "", newNodeConfigError(node.ID, "more than one finalize node declared")
		}

		finalizeID = node.ID
	}

	if finalizeID == "" {
		return "", newGraphConfigError("graph has no finalize node")
	}

	if len(s.adjacency[finalizeID]) > 0 {
		edge := s.adjacency[finalizeID][0]

		return "", newEdgeConfigError(edge.Source, edge.Target, "finalize node must be terminal")
	}

	return finalizeID, nil
}

func (s *GraphSpec) validateEdges() error {
	for source, edges := range s.adjacency {
		if _, ok := s.nodesByID[source]; !ok {
			return newEdgeConfigError(source, edges[0].Target, "edge source is not declared")
		}

		defaultSeen := false

		for _, edge := range edges {
			if _, ok := s.nodesByID[edge.Target]; !ok {
				return newEdgeConfigError(edge.Source, edge.Target, "edge target is not declared")
			}

			if !KnownCondition(edge.When) {
				return newEdgeConfigError(edge.Source, edge.Target, fmt.Sprintf("unknown condition %q", edge.When))
			}

			if defaultSeen {
				return newEdgeConfigError(edge.Source, edge.Target, "default edge must be declared last for its source")
			}

			if edge.When == "" {
				defaultSeen = true
			}
		}
	}

	return nil
}

func (s *GraphSpec) validateReachability(finalizeID string) error {
	reached := s.reachableFrom(s.Entry, s.adjacency)

	for _, node := range s.Nodes {
		if !reached[node.ID] {
			return newNodeConfigError(node.ID, "not reachable from the entry node")
		}
	}

	reverse := make(map[string][]EdgeSpec)
	for _, edge := range s.Edges {
		reverse[edge.Target] = append(reverse[edge.Target], EdgeSpec{Source: edge.Target, Target: edge.Source})
	}

	reachesFinalize := s.reachableFrom(finalizeID, reverse)

	for _, node := range s.Nodes {
		if !reachesFinalize[node.ID] {
			return newNodeConfigError(node.ID, "finalize is not reachable from this node")
		}
	}

	return nil
}

// validateHandoff rejects graphs where a hand-off node could execute more
// than once on a single path: a hand-off inside a cycle, or a hand-off
// downstream of another one.
func (s *GraphSpec) validateHandoff() error {
	for _, node := range s.Nodes {
		if node.Type != NodeHandoff {
			continue
		}

		downstream := make(map[string]bool)
		for _, edge := range s.adjacency[node.ID] {
			for id := range s.reachableFrom(edge.Target, s.adjacency) {
				downstream[id] = true
			}
		}

		if downstream[node.ID] {
			return newNodeConfigError(node.ID, "hand-off node lies on a cycle")
		}

		for id := range downstream {
			if other, ok := s.nodesByID[id]; ok && other.Type == NodeHandoff {
				return newNodeConfigError(other.ID, "hand-off node reachable from another hand-off")
			}
		}
	}

	return nil
}

func (s *GraphSpec) reachableFrom(start string, adjacency map[string][]EdgeSpec) map[string]bool {
	visited := map[string]bool{start: true}
	frontier := []string{start}

	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]

		for _, edge := range adjacency[current] {
			if !visited[edge.Target] {
				visited[edge.Target] = true
				frontier = append(frontier, edge.Target)
			}
		}
	}

	return visited
}
