package finalize

import (
	"context"

	"github.com/getleadpipe/leadpipe/pkg/protocol"
)

type Factory struct {
	sink Sink
}

// NewFactory creates a factory for finalize nodes flushing into the given sink.
func NewFactory(sink Sink) protocol.NodeFactory {
	return &Factory{sink: sink}
}

func (f *Factory) Create(ctx context.Context, config map[string]any) (protocol.Node, error) {
	return NewFinalizeNode(f.sink, config)
}

func (f *Factory) ID() string {
	return "finalize"
}

func (f *Factory) Name() string {
	return "Finalize"
}

func (f *Factory) Description() string {
	return "Decides the lead's terminal status and persists the run's conversation and processing log"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}
