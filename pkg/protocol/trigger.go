package protocol

import (
	"context"
	"log/slog"
)

// CampaignIDKey is the callback data key carrying the campaign to run.
const CampaignIDKey = "campaign_id"

// TriggerCallback is invoked by a trigger to request a campaign batch run.
type TriggerCallback func(ctx context.Context, data map[string]any) error

// Trigger is an external source of campaign run requests (cron schedules,
// queue consumers). Start blocks until the context is cancelled or Stop is
// called.
type Trigger interface {
	Start(ctx context.Context, callback TriggerCallback) error
	Stop(ctx context.Context) error
	Validate() error
}

type TriggerFactory interface {
	Create(config map[string]any, logger *slog.Logger) (Trigger, error)
	ID() string
}
