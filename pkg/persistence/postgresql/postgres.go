// Package postgresql provides PostgreSQL persistence implementation for
// reservations and approval workflows.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/leduxro-prog/erp-core/pkg/persistence"
	"github.com/leduxro-prog/erp-core/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db              *sql.DB
	logger          *slog.Logger
	reservationRepo *ReservationRepository
	templateRepo    *TemplateRepository
	instanceRepo    *InstanceRepository
	delegationRepo  *DelegationRepository
	analyticsRepo   *AnalyticsRepository
}

// NewPersistence creates a new PostgreSQL persistence layer and runs pending
// migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	postgres := &Persistence{
		db:              database,
		logger:          logger,
		reservationRepo: NewReservationRepository(database, logger),
		templateRepo:    NewTemplateRepository(database, logger),
		instanceRepo:    NewInstanceRepository(database, logger),
		delegationRepo:  NewDelegationRepository(database, logger),
		analyticsRepo:   NewAnalyticsRepository(database, logger),
	}

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

// Close closes the database connection.
func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) ReservationRepository() persistence.ReservationRepository {
	return p.reservationRepo
}

func (p *Persistence) TemplateRepository() persistence.TemplateRepository {
	return p.templateRepo
}

func (p *Persistence) InstanceRepository() persistence.InstanceRepository {
	return p.instanceRepo
}

func (p *Persistence) DelegationRepository() persistence.DelegationRepository {
	return p.delegationRepo
}

func (p *Persistence) AnalyticsRepository() persistence.AnalyticsRepository {
	return p.analyticsRepo
}
