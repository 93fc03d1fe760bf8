package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	pkgcmd "github.com/getleadpipe/leadpipe/pkg/cmd"
	"github.com/getleadpipe/leadpipe/pkg/log"
)

const defaultPort = 9091

func main() {
	command := &cli.Command{
		Name:                  "leadpipe-api",
		Usage:                 "Create and manage outreach campaigns and leads",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("LEADPIPE_PORT", "PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (postgres:// or a file path)",
				Required: true,
				Sources:  cli.EnvVars("LEADPIPE_DATABASE_URL", "DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus transport (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("LEADPIPE_EVENT_BUS", "EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated Kafka broker list",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("LEADPIPE_KAFKA_BROKERS", "KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "generation-provider",
				Usage:   "Message generation backend (openai, mock)",
				Value:   "mock",
				Sources: cli.EnvVars("LEADPIPE_GENERATION_PROVIDER"),
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Usage:   "API key for the OpenAI generation backend",
				Sources: cli.EnvVars("LEADPIPE_OPENAI_API_KEY", "OPENAI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "delivery-provider",
				Usage:   "Channel delivery backend (twilio, mock)",
				Value:   "mock",
				Sources: cli.EnvVars("LEADPIPE_DELIVERY_PROVIDER"),
			},
			&cli.StringFlag{
				Name:    "twilio-account-sid",
				Usage:   "Twilio account SID",
				Sources: cli.EnvVars("LEADPIPE_TWILIO_ACCOUNT_SID", "TWILIO_ACCOUNT_SID"),
			},
			&cli.StringFlag{
				Name:    "twilio-auth-token",
				Usage:   "Twilio auth token",
				Sources: cli.EnvVars("LEADPIPE_TWILIO_AUTH_TOKEN", "TWILIO_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "twilio-from",
				Usage:   "Twilio sender number",
				Sources: cli.EnvVars("LEADPIPE_TWILIO_FROM", "TWILIO_FROM"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LEADPIPE_LOG_LEVEL", "LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing Leadpipe API")

			persistence, err := pkgcmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := pkgcmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			generator, err := pkgcmd.NewGenerator(pkgcmd.GeneratorConfig{
				Provider: command.String("generation-provider"),
				APIKey:   command.String("openai-api-key"),
			})
			if err != nil {
				return err
			}

			provider, err := pkgcmd.NewDeliveryProvider(pkgcmd.DeliveryConfig{
				Provider:   command.String("delivery-provider"),
				AccountSID: command.String("twilio-account-sid"),
				AuthToken:  command.String("twilio-auth-token"),
				From:       command.String("twilio-from"),
			}, logger)
			if err != nil {
				return err
			}

			registry := pkgcmd.NewRegistry(logger, persistence, generator, provider)

			api := NewAPI(
				logger,
				persistence,
				registry,
				eventBus,
			)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "API server stopped", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
