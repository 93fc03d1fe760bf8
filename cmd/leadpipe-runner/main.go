package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	pkgcmd "github.com/getleadpipe/leadpipe/pkg/cmd"
	"github.com/getleadpipe/leadpipe/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "leadpipe-runner",
		EnableShellCompletion: true,
		Usage:                 "Execute campaign batches from run requests",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("LEADPIPE_WORKER_ID", "WORKER_ID"),
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
			&cli.BoolFlag{
				Name:    "queue-enabled",
				Usage:   "Consume run requests from a Redis queue",
				Sources: cli.EnvVars("LEADPIPE_QUEUE_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address for the run-request queue",
				Value:   "localhost:6379",
				Sources: cli.EnvVars("LEADPIPE_REDIS_ADDR", "REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "queue-name",
				Usage:   "Redis list holding run requests",
				Sources: cli.EnvVars("LEADPIPE_QUEUE_NAME"),
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "Address for the Prometheus metrics endpoint (empty disables it)",
				Value:   ":9100",
				Sources: cli.EnvVars("LEADPIPE_METRICS_ADDR"),
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

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "runner-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("leadpipe-runner").With("worker_id", workerID)
			logger.InfoContext(ctx, "Initializing Leadpipe runner")

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

			runner := NewRunnerManager(
				workerID,
				persistence,
				eventBus,
				logger,
				registry,
				QueueConfig{
					Enabled: command.Bool("queue-enabled"),
					Addr:    command.String("redis-addr"),
					Queue:   command.String("queue-name"),
				},
				command.String("metrics-addr"),
			)

			if err := runner.Start(ctx); err != nil {
				logger.ErrorContext(ctx, "Runner stopped", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
