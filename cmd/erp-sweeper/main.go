// Package main provides the erp-core sweep daemon: it expires run-out stock
// reservations and escalates stalled approval steps on a recurring schedule.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/leduxro-prog/erp-core/pkg/clock"
	"github.com/leduxro-prog/erp-core/pkg/cmd"
	"github.com/leduxro-prog/erp-core/pkg/log"
	"github.com/leduxro-prog/erp-core/pkg/notification"
	"github.com/leduxro-prog/erp-core/pkg/otelhelper"
	"github.com/leduxro-prog/erp-core/pkg/reservation"
	"github.com/leduxro-prog/erp-core/pkg/sweep"
	"github.com/leduxro-prog/erp-core/pkg/workflow"
)

func main() {
	command := &cli.Command{
		Name:                  "erp-sweeper",
		Usage:                 "Expire stock reservations and escalate stalled approval steps",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "sweeper-id",
				Aliases: []string{"id"},
				Usage:   "Custom sweeper ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("SWEEPER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "schedule",
				Usage:   "Cron expression for the sweep schedule",
				Value:   sweep.DefaultSchedule,
				Sources: cli.EnvVars("SWEEP_SCHEDULE"),
			},
			&cli.IntFlag{
				Name:    "batch-size",
				Usage:   "Maximum entities touched per sweep pass",
				Value:   sweep.DefaultBatchSize,
				Sources: cli.EnvVars("SWEEP_BATCH_SIZE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			sweeperID := command.String("sweeper-id")
			if sweeperID == "" {
				sweeperID = "sweeper-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("erp-sweeper").With("sweeperId", sweeperID)

			logger.InfoContext(ctx, "Initializing ERP Core Sweeper")

			tracer, err := otelhelper.NewTracer(ctx, "erp-sweeper")
			if err != nil {
				return err
			}

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			clk := clock.Real{}
			notifier := notification.NewEventBusNotifier(eventBus, logger)

			manager := reservation.NewManager(reservation.Config{
				Persistence: persistence,
				// The sweep never creates reservations, so availability is
				// not consulted here.
				Inventory: nil,
				Clock:     clk,
				EventBus:  eventBus,
				Notifier:  notifier,
				Logger:    logger,
			})

			engine := workflow.NewEngine(workflow.Config{
				Persistence: persistence,
				Clock:       clk,
				Notifier:    notifier,
				EventBus:    eventBus,
				Logger:      logger,
			})

			sweeper := sweep.NewSweeper(sweep.Config{
				Reservations: manager,
				Workflows:    engine,
				Logger:       logger,
				Tracer:       tracer,
				Schedule:     command.String("schedule"),
				BatchSize:    command.Int("batch-size"),
			})

			if err := sweeper.Start(ctx); err != nil {
				return err
			}

			signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			<-signalCtx.Done()

			sweeper.Stop(ctx)
			logger.InfoContext(ctx, "Sweeper shut down")

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
