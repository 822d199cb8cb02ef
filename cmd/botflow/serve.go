package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/botflow/pkg/channels/kafka"
	"github.com/dukex/botflow/pkg/cmd"
	"github.com/dukex/botflow/pkg/eventbus"
	"github.com/dukex/botflow/pkg/events"
	"github.com/dukex/botflow/pkg/log"
	"github.com/dukex/botflow/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
)

func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the editor API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Document store URL (file://, postgres://, redis://)",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated Kafka broker addresses",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			actionsPathFlag(),
			localeFlag(),
			logLevelFlag(),
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing Botflow API")

			locale, err := parseLocale(command.String("locale"))
			if err != nil {
				return err
			}

			reg, err := cmd.NewRegistry(log.WithModule("registry"), command.String("actions-path"))
			if err != nil {
				return err
			}

			tracer, shutdown, err := otelhelper.NewTracer(ctx, "botflow-api")
			if err != nil {
				return fmt.Errorf("failed to initialize tracer: %w", err)
			}

			defer func() {
				if err := shutdown(context.WithoutCancel(ctx)); err != nil {
					logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
				}
			}()

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), kafka.ParseBrokers(command.String("kafka-brokers")), log.WithModule("event_bus"))
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			if err := logWorkflowEvents(ctx, eventBus, logger); err != nil {
				return err
			}

			api := NewAPI(logger, persistence, reg, eventBus, tracer, locale)

			return api.Start(int(command.Int("port")))
		},
	}
}

// logWorkflowEvents subscribes an audit logger to every workflow change.
func logWorkflowEvents(ctx context.Context, bus eventbus.EventBus, logger *slog.Logger) error {
	audit := logger.With("component", "audit")

	handlers := map[events.EventType]eventbus.EventHandler{
		events.WorkflowSavedEvent: func(ctx context.Context, event any) error {
			if e, ok := event.(*events.WorkflowSaved); ok {
				audit.InfoContext(ctx, "Workflow saved",
					"workflow_id", e.WorkflowID, "source", e.Source, "nodes", e.NodeCount, "edges", e.EdgeCount)
			}

			return nil
		},
		events.WorkflowDeletedEvent: func(ctx context.Context, event any) error {
			if e, ok := event.(*events.WorkflowDeleted); ok {
				audit.InfoContext(ctx, "Workflow deleted", "workflow_id", e.WorkflowID)
			}

			return nil
		},
		events.NodeConfiguredEvent: func(ctx context.Context, event any) error {
			if e, ok := event.(*events.NodeConfigured); ok {
				audit.InfoContext(ctx, "Node configured",
					"workflow_id", e.WorkflowID, "node_id", e.NodeID, "modes", e.Modes)
			}

			return nil
		},
	}

	for eventType, handler := range handlers {
		if err := bus.Handle(eventType, handler); err != nil {
			return fmt.Errorf("failed to register %s handler: %w", eventType, err)
		}
	}

	return bus.Subscribe(ctx)
}
