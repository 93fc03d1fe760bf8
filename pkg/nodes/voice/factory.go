package voice

import (
	"context"

	"github.com/getleadpipe/leadpipe/pkg/delivery"
	"github.com/getleadpipe/leadpipe/pkg/protocol"
)

type Factory struct {
	provider delivery.Provider
}

// NewFactory creates a factory for voice nodes backed by the given provider.
func NewFactory(provider delivery.Provider) protocol.NodeFactory {
	return &Factory{provider: provider}
}

func (f *Factory) Create(ctx context.Context, config map[string]any) (protocol.Node, error) {
	return NewVoiceNode(f.provider, config)
}

func (f *Factory) ID() string {
	return "voice"
}

func (f *Factory) Name() string {
	return "Voice Call"
}

func (f *Factory) Description() string {
	return "Places an outbound call to the lead using the drafted message as the call script"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"timeout_seconds": map[string]any{
				"type":        "number",
				"description": "Upper bound for a single call placement",
				"default":     60,
			},
		},
	}
}
