// Package sweep implements the recurring expiry and escalation pass: expired
// reservations are transitioned by the reservation manager and stalled
// workflow instances are escalated by the engine. The sweep is idempotent and
// safe to run from multiple processes at once, because both transitions are
// conditional on the persisted state.
package sweep

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/leduxro-prog/erp-core/pkg/otelhelper"
	"github.com/leduxro-prog/erp-core/pkg/reservation"
	"github.com/leduxro-prog/erp-core/pkg/workflow"
)

// DefaultSchedule runs the sweep every five minutes.
const DefaultSchedule = "*/5 * * * *"

// DefaultBatchSize bounds how many entities one pass touches.
const DefaultBatchSize = 500

// Result tallies one sweep pass. Errs holds the per-entity failures that were
// isolated and skipped.
type Result struct {
	ReservationsExpired int
	InstancesEscalated  int
	DelegationsPruned   int
	Errs                []error
}

// Config enumerates the sweeper's collaborators.
type Config struct {
	Reservations *reservation.Manager
	Workflows    *workflow.Engine
	Logger       *slog.Logger
	Tracer       trace.Tracer
	Schedule     string // cron expression, DefaultSchedule when empty
	BatchSize    int
}

// Sweeper periodically expires run-out reservations and escalates stalled
// workflow steps.
type Sweeper struct {
	reservations *reservation.Manager
	workflows    *workflow.Engine
	logger       *slog.Logger
	tracer       trace.Tracer
	schedule     string
	batchSize    int

	cron    *cron.Cron
	started bool
	mu      sync.Mutex
}

func NewSweeper(cfg Config) *Sweeper {
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = DefaultSchedule
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &Sweeper{
		reservations: cfg.Reservations,
		workflows:    cfg.Workflows,
		logger:       cfg.Logger.With("module", "sweep"),
		tracer:       cfg.Tracer,
		schedule:     schedule,
		batchSize:    batchSize,
	}
}

// Start schedules the recurring sweep. Idempotent.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.cron = cron.New()

	_, err := s.cron.AddFunc(s.schedule, func() {
		result := s.Run(ctx)
		s.logger.InfoContext(ctx, "Sweep pass finished",
			"reservations_expired", result.ReservationsExpired,
			"instances_escalated", result.InstancesEscalated,
			"delegations_pruned", result.DelegationsPruned,
			"errors", len(result.Errs))
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.started = true
	s.logger.InfoContext(ctx, "Sweeper started", "schedule", s.schedule)

	return nil
}

// Stop halts the schedule and waits for a running pass to finish.
func (s *Sweeper) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()

	s.started = false
	s.logger.InfoContext(ctx, "Sweeper stopped")
}

// Run executes one sweep pass: reservations first, then workflow steps. A
// failure on one entity is collected and the pass continues; a batch is never
// aborted by a single corrupt record.
func (s *Sweeper) Run(ctx context.Context) Result {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "sweep.run")
	defer span.End()

	var result Result

	s.sweepReservations(ctx, &result)
	s.sweepInstances(ctx, &result)
	s.pruneDelegations(ctx, &result)

	span.SetAttributes(
		attribute.Int("sweep.reservations_expired", result.ReservationsExpired),
		attribute.Int("sweep.instances_escalated", result.InstancesEscalated),
		attribute.Int("sweep.delegations_pruned", result.DelegationsPruned),
		attribute.Int("sweep.errors", len(result.Errs)),
	)

	return result
}

func (s *Sweeper) sweepReservations(ctx context.Context, result *Result) {
	expired, err := s.reservations.ListExpired(ctx, s.batchSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list expired reservations", "error", err)
		result.Errs = append(result.Errs, err)

		return
	}

	for _, res := range expired {
		applied, err := s.reservations.Expire(ctx, res)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to expire reservation",
				"reservation_id", res.ID, "error", err)
			result.Errs = append(result.Errs, err)

			continue
		}

		if applied {
			result.ReservationsExpired++
		}
	}
}

func (s *Sweeper) sweepInstances(ctx context.Context, result *Result) {
	stalled, err := s.workflows.ListStalled(ctx, s.batchSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list stalled instances", "error", err)
		result.Errs = append(result.Errs, err)

		return
	}

	for _, instance := range stalled {
		applied, err := s.workflows.Escalate(ctx, instance.ID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to escalate instance",
				"instance_id", instance.ID, "error", err)
			result.Errs = append(result.Errs, err)

			continue
		}

		if applied {
			result.InstancesEscalated++
		}
	}
}

func (s *Sweeper) pruneDelegations(ctx context.Context, result *Result) {
	pruned, err := s.workflows.PruneDelegations(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to prune expired delegations", "error", err)
		result.Errs = append(result.Errs, err)

		return
	}

	result.DelegationsPruned = pruned
}
