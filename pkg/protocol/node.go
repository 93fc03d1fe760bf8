// Package protocol defines the interfaces and contracts for pluggable nodes
// and triggers.
package protocol

import (
	"context"

	"github.com/getleadpipe/leadpipe/pkg/models"
)

// Node is one processing step in a compiled campaign graph. Implementations
// mutate the execution state through its methods, log their own start and
// completion into the state's processing log, and report failures as returned
// errors; the engine translates those into a failed run, they never escape.
type Node interface {
	// Type returns the registered node type identifier.
	Type() string

	// Run executes the step against one lead's execution state.
	Run(ctx context.Context, state *models.ExecutionState) error
}

// NodeFactory creates node instances and provides metadata about the node type.
type NodeFactory interface {
	// Create creates a new node instance with the given configuration
	Create(ctx context.Context, config map[string]any) (Node, error)

	// ID returns the unique identifier for this node type
	ID() string

	// Name returns the human-readable name for this node type
	Name() string

	// Description returns a description of what this node does
	Description() string

	// Schema returns the JSON schema for configuring this node
	Schema() map[string]any
}
