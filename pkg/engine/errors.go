// Package engine implements the campaign workflow graph: the validated
// node/edge spec, the static pipeline shapes, the dynamic-definition compiler,
// and the runner that drives one lead's execution state through a graph.
package engine

import (
	"errors"
	"fmt"

	"github.com/getleadpipe/leadpipe/pkg/models"
)

// GenerationError reports a text-generation call failure, timeout, or
// malformed response.
type GenerationError struct {
	Role  string
	Model string
	Err   error
}

func NewGenerationError(role, model string, err error) *GenerationError {
	return &GenerationError{Role: role, Model: model, Err: err}
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for role %q (model %q): %v", e.Role, e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// DeliveryError reports a channel send failure. It is tracked separately from
// generation failures in the campaign stats.
type DeliveryError struct {
	Channel models.ChannelType
	Address string
	Err     error
}

func NewDeliveryError(channel models.ChannelType, address string, err error) *DeliveryError {
	return &DeliveryError{Channel: channel, Address: address, Err: err}
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery on channel %q to %q failed: %v", e.Channel, e.Address, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// GraphConfigError rejects an invalid graph at build or compile time, naming
// the offending node or edge. It is fatal for the campaign: no lead is
// processed against a graph that failed to compile.
type GraphConfigError struct {
	NodeID string
	Edge   string
	Reason string
}

func newNodeConfigError(nodeID, reason string) *GraphConfigError {
	return &GraphConfigError{NodeID: nodeID, Reason: reason}
}

func newEdgeConfigError(source, target, reason string) *GraphConfigError {
	return &GraphConfigError{Edge: source + " -> " + target, Reason: reason}
}

func newGraphConfigError(reason string) *GraphConfigError {
	return &GraphConfigError{Reason: reason}
}

func (e *GraphConfigError) Error() string {
	switch {
	case e.NodeID != "":
		return fmt.Sprintf("invalid graph: node %q: %s", e.NodeID, e.Reason)
	case e.Edge != "":
		return fmt.Sprintf("invalid graph: edge %s: %s", e.Edge, e.Reason)
	default:
		return "invalid graph: " + e.Reason
	}
}

// GraphOverrunError aborts one lead's run when the step ceiling is exceeded,
// which guards against misconfigured cycles in dynamic graphs. It fails that
// lead only; the batch continues.
type GraphOverrunError struct {
	GraphID  string
	Steps    int
	Limit    int
	LastNode string
}

func (e *GraphOverrunError) Error() string {
	return fmt.Sprintf("graph %q overran the step ceiling (%d steps, limit %d) at node %q",
		e.GraphID, e.Steps, e.Limit, e.LastNode)
}

func IsGraphConfigError(err error) bool {
	var target *GraphConfigError

	return errors.As(err, &target)
}

func IsGraphOverrunError(err error) bool {
	var target *GraphOverrunError

	return errors.As(err, &target)
}

// ClassifyFailure maps a node or runner error onto the failure taxonomy used
// by campaign stats.
func ClassifyFailure(err error) models.FailureKind {
	var (
		generation *GenerationError
		delivery   *DeliveryError
		overrun    *GraphOverrunError
	)

	switch {
	case errors.As(err, &generation):
		return models.FailureGeneration
	case errors.As(err, &delivery):
		return models.FailureDelivery
	case errors.As(err, &overrun):
		return models.FailureOverrun
	default:
		return models.FailureInternal
	}
}
