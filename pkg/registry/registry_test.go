package registry_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/getleadpipe/leadpipe/pkg/models"
	"github.com/getleadpipe/leadpipe/pkg/protocol"
	"github.com/getleadpipe/leadpipe/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNode struct {
	nodeType string
}

func (n *stubNode) Type() string {
	return n.nodeType
}

func (n *stubNode) Run(_ context.Context, state *models.ExecutionState) error {
	state.AppendLog(models.LogLevelInfo, n.nodeType, "ran", nil)

	return nil
}

type stubNodeFactory struct {
	id string
}

func (f *stubNodeFactory) Create(_ context.Context, _ map[string]any) (protocol.Node, error) {
	return &stubNode{nodeType: f.id}, nil
}

func (f *stubNodeFactory) ID() string             { return f.id }
func (f *stubNodeFactory) Name() string           { return f.id }
func (f *stubNodeFactory) Description() string    { return "stub node for tests" }
func (f *stubNodeFactory) Schema() map[string]any { return map[string]any{} }

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	return registry.NewRegistry(logger)
}

func TestRegistry_CreateNode(t *testing.T) {
	reg := newTestRegistry(t)
	reg.RegisterNode(&stubNodeFactory{id: "validate"})

	node, err := reg.CreateNode(context.Background(), "validate", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "validate", node.Type())
}

func TestRegistry_CreateNode_Unregistered(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.CreateNode(context.Background(), "enrich", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRegistry_HasNodeAndTypes(t *testing.T) {
	reg := newTestRegistry(t)
	reg.RegisterNode(&stubNodeFactory{id: "validate"})
	reg.RegisterNode(&stubNodeFactory{id: "finalize"})

	assert.True(t, reg.HasNode("validate"))
	assert.False(t, reg.HasNode("voice"))
	assert.Equal(t, []string{"finalize", "validate"}, reg.NodeTypes())
}
