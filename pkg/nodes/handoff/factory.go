package handoff

import (
	"context"

	"github.com/getleadpipe/leadpipe/pkg/protocol"
)

type Factory struct{}

// NewFactory creates a factory for hand-off nodes.
func NewFactory() protocol.NodeFactory {
	return &Factory{}
}

func (f *Factory) Create(ctx context.Context, config map[string]any) (protocol.Node, error) {
	return NewHandoffNode(config)
}

func (f *Factory) ID() string {
	return "handoff"
}

func (f *Factory) Name() string {
	return "Hand-off"
}

func (f *Factory) Description() string {
	return "Freezes the creative draft as the deterministic agent's input for channel execution"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}
