package deliver

import (
	"context"

	"github.com/getleadpipe/leadpipe/pkg/delivery"
	"github.com/getleadpipe/leadpipe/pkg/protocol"
)

type Factory struct {
	provider delivery.Provider
}

// NewFactory creates a factory for deliver nodes backed by the given provider.
func NewFactory(provider delivery.Provider) protocol.NodeFactory {
	return &Factory{provider: provider}
}

func (f *Factory) Create(ctx context.Context, config map[string]any) (protocol.Node, error) {
	return NewDeliverNode(f.provider, config)
}

func (f *Factory) ID() string {
	return "deliver"
}

func (f *Factory) Name() string {
	return "Deliver SMS"
}

func (f *Factory) Description() string {
	return "Sends the drafted message to the lead's phone over SMS"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"timeout_seconds": map[string]any{
				"type":        "number",
				"description": "Upper bound for a single delivery call",
				"default":     30,
			},
		},
	}
}
