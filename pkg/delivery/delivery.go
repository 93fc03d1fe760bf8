// Package delivery abstracts outbound channel sends (sms, voice) behind a
// provider interface with mock and Twilio implementations.
package delivery

import (
	"context"

	"github.com/getleadpipe/leadpipe/pkg/models"
)

// Request is one outbound send.
type Request struct {
	Channel models.ChannelType
	Address string
	Message string
	LeadID  string
}

// Receipt is the provider's answer. A rejected send (Accepted=false) is a
// soft outcome, distinct from a transport error.
type Receipt struct {
	Accepted    bool
	ProviderRef string
	Response    string
}

// Provider executes sends on one or more channels. Implementations must
// honor context cancellation; callers bound each send with a timeout.
type Provider interface {
	Send(ctx context.Context, req Request) (*Receipt, error)
}
