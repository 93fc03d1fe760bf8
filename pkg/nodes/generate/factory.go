package generate

import (
	"context"

	"github.com/getleadpipe/leadpipe/pkg/generation"
	"github.com/getleadpipe/leadpipe/pkg/protocol"
)

type Factory struct {
	generator generation.Generator
}

// NewFactory creates a factory for generate nodes backed by the given
// generator. Every node built by this factory shares the generator.
func NewFactory(generator generation.Generator) protocol.NodeFactory {
	return &Factory{generator: generator}
}

func (f *Factory) Create(ctx context.Context, config map[string]any) (protocol.Node, error) {
	return NewGenerateNode(f.generator, config)
}

func (f *Factory) ID() string {
	return "generate"
}

func (f *Factory) Name() string {
	return "Generate Message"
}

func (f *Factory) Description() string {
	return "Drafts a personalized outreach message for the lead using the campaign's creative agent"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt_template": map[string]any{
				"type":        "string",
				"description": "Go text/template rendered against the lead snapshot to build the user prompt",
			},
			"timeout_seconds": map[string]any{
				"type":        "number",
				"description": "Upper bound for a single generation call",
				"default":     30,
			},
		},
	}
}
