package engine

import (
	"context"

	"github.com/getleadpipe/leadpipe/pkg/protocol"
	"github.com/getleadpipe/leadpipe/pkg/registry"
)

// Graph is a GraphSpec with its nodes instantiated, ready to run. Nodes hold
// no per-lead state, so one Graph serves every lead of a campaign batch.
type Graph struct {
	Spec *GraphSpec

	nodes map[string]protocol.Node
}

// Build instantiates every declared node through the registry.
func Build(ctx context.Context, spec *GraphSpec, reg *registry.Registry) (*Graph, error) {
	nodes := make(map[string]protocol.Node, len(spec.Nodes))

	for _, nodeSpec := range spec.Nodes {
		node, err := reg.CreateNode(ctx, string(nodeSpec.Type), nodeSpec.Config)
		if err != nil {
			return nil, newNodeConfigError(nodeSpec.ID, err.Error())
		}

		nodes[nodeSpec.ID] = node
	}

	return &Graph{Spec: spec, nodes: nodes}, nil
}

func (g *Graph) Node(id string) (protocol.Node, bool) {
	node, ok := g.nodes[id]

	return node, ok
}
