package validate

import (
	"context"

	"github.com/getleadpipe/leadpipe/pkg/protocol"
)

type Factory struct{}

// NewFactory creates a new factory for validate nodes.
func NewFactory() protocol.NodeFactory {
	return &Factory{}
}

func (f *Factory) Create(ctx context.Context, config map[string]any) (protocol.Node, error) {
	return NewValidateNode(config)
}

func (f *Factory) ID() string {
	return "validate"
}

func (f *Factory) Name() string {
	return "Validate Lead"
}

func (f *Factory) Description() string {
	return "Checks the lead's contact data and optionally a working-hours window before outreach continues"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"enforce_working_hours": map[string]any{
				"type":        "boolean",
				"description": "Reject leads processed outside the configured working-hours window",
				"default":     false,
			},
			"start_hour": map[string]any{
				"type":        "number",
				"description": "First hour of the working-hours window (0-23)",
				"default":     9,
			},
			"end_hour": map[string]any{
				"type":        "number",
				"description": "Hour the working-hours window closes (1-24, exclusive)",
				"default":     18,
			},
			"timezone": map[string]any{
				"type":        "string",
				"description": "IANA timezone name used to evaluate the working-hours window",
				"default":     "UTC",
				"examples":    []string{"America/New_York", "Europe/Lisbon"},
			},
		},
	}
}
