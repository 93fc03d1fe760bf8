// Package registry maps node and trigger type identifiers to their factories.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/getleadpipe/leadpipe/pkg/protocol"
)

type Registry struct {
	logger           *slog.Logger
	nodeFactories    map[string]protocol.NodeFactory
	triggerFactories map[string]protocol.TriggerFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:           log,
		nodeFactories:    make(map[string]protocol.NodeFactory),
		triggerFactories: make(map[string]protocol.TriggerFactory),
	}
}

func (r *Registry) RegisterNode(nodeFactory protocol.NodeFactory) {
	r.nodeFactories[nodeFactory.ID()] = nodeFactory
}

func (r *Registry) RegisterTrigger(triggerFactory protocol.TriggerFactory) {
	r.triggerFactories[triggerFactory.ID()] = triggerFactory
}

func (r *Registry) CreateNode(ctx context.Context, nodeType string, config map[string]any) (protocol.Node, error) {
	factory, ok := r.nodeFactories[nodeType]
	if !ok {
		return nil, fmt.Errorf("node type '%s' not registered", nodeType)
	}

	return factory.Create(ctx, config)
}

func (r *Registry) CreateTrigger(triggerID string, config map[string]any) (protocol.Trigger, error) {
	factory, ok := r.triggerFactories[triggerID]
	if !ok {
		return nil, fmt.Errorf("trigger ID '%s' not registered", triggerID)
	}

	return factory.Create(config, r.logger)
}

// HasNode reports whether a node type is registered; the dynamic graph
// compiler consults this before accepting a stored definition.
func (r *Registry) HasNode(nodeType string) bool {
	_, ok := r.nodeFactories[nodeType]

	return ok
}

func (r *Registry) NodeTypes() []string {
	types := make([]string, 0, len(r.nodeFactories))
	for nodeType := range r.nodeFactories {
		types = append(types, nodeType)
	}

	sort.Strings(types)

	return types
}
