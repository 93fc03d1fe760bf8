// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/getleadpipe/leadpipe/pkg/batch"
	"github.com/getleadpipe/leadpipe/pkg/delivery"
	"github.com/getleadpipe/leadpipe/pkg/generation"
	"github.com/getleadpipe/leadpipe/pkg/nodes/deliver"
	"github.com/getleadpipe/leadpipe/pkg/nodes/finalize"
	"github.com/getleadpipe/leadpipe/pkg/nodes/generate"
	"github.com/getleadpipe/leadpipe/pkg/nodes/handoff"
	"github.com/getleadpipe/leadpipe/pkg/nodes/validate"
	"github.com/getleadpipe/leadpipe/pkg/nodes/voice"
	"github.com/getleadpipe/leadpipe/pkg/persistence"
	"github.com/getleadpipe/leadpipe/pkg/registry"
	"github.com/getleadpipe/leadpipe/pkg/triggers/queue"
	"github.com/getleadpipe/leadpipe/pkg/triggers/schedule"
)

// GeneratorConfig selects the message generation backend.
type GeneratorConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
}

// DeliveryConfig selects the channel delivery backend.
type DeliveryConfig struct {
	Provider   string
	AccountSID string
	AuthToken  string
	From       string
}

func NewGenerator(cfg GeneratorConfig) (generation.Generator, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.BaseURL != "" {
			return generation.NewOpenAICompatible(cfg.APIKey, cfg.BaseURL), nil
		}

		return generation.NewOpenAI(cfg.APIKey), nil
	case "mock", "":
		return generation.NewMock(), nil
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", cfg.Provider)
	}
}

func NewDeliveryProvider(cfg DeliveryConfig, logger *slog.Logger) (delivery.Provider, error) {
	switch cfg.Provider {
	case "twilio":
		return delivery.NewTwilio(cfg.AccountSID, cfg.AuthToken, cfg.From), nil
	case "mock", "":
		return delivery.NewMock(logger), nil
	default:
		return nil, fmt.Errorf("unsupported delivery provider: %s", cfg.Provider)
	}
}

func registerNativeNodes(
	reg *registry.Registry,
	generator generation.Generator,
	provider delivery.Provider,
	sink *batch.StoreSink,
) {
	reg.RegisterNode(validate.NewFactory())
	reg.RegisterNode(generate.NewFactory(generator))
	reg.RegisterNode(deliver.NewFactory(provider))
	reg.RegisterNode(voice.NewFactory(provider))
	reg.RegisterNode(handoff.NewFactory())
	reg.RegisterNode(finalize.NewFactory(sink))
}

func registerNativeTriggers(reg *registry.Registry) {
	reg.RegisterTrigger(schedule.NewFactory())
	reg.RegisterTrigger(queue.NewFactory())
}

// NewRegistry assembles the node and trigger registry used by every binary.
func NewRegistry(
	log *slog.Logger,
	store persistence.Persistence,
	generator generation.Generator,
	provider delivery.Provider,
) *registry.Registry {
	reg := registry.NewRegistry(log)

	registerNativeNodes(reg, generator, provider, batch.NewStoreSink(store))
	registerNativeTriggers(reg)

	return reg
}
