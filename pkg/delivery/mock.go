package delivery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/getleadpipe/leadpipe/pkg/models"
)

// Mock is the default provider: it accepts every send without touching the
// network, which keeps development and demo campaigns free.
type Mock struct {
	logger *slog.Logger
}

func NewMock(logger *slog.Logger) *Mock {
	return &Mock{logger: logger.With("module", "delivery", "provider", "mock")}
}

func (m *Mock) Send(ctx context.Context, req Request) (*Receipt, error) {
	var ref string

	switch req.Channel {
	case models.ChannelVoice:
		ref = "mock_call_" + req.LeadID
	default:
		ref = fmt.Sprintf("mock_%s_%d", req.Address, len(req.Message))
	}

	m.logger.InfoContext(ctx, "mock delivery accepted",
		"channel", string(req.Channel),
		"address", req.Address,
		"provider_ref", ref,
	)

	return &Receipt{Accepted: true, ProviderRef: ref, Response: "queued"}, nil
}
