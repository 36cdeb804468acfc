package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/leduxro-prog/erp-core/pkg/models"
	"github.com/leduxro-prog/erp-core/pkg/persistence"
)

// MockReservationRepository is a mock implementation of persistence.ReservationRepository interface.
type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) Save(ctx context.Context, reservation *models.StockReservation) error {
	args := m.Called(ctx, reservation)

	return args.Error(0)
}

func (m *MockReservationRepository) GetByID(ctx context.Context, id string) (*models.StockReservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.StockReservation), args.Error(1)
}

func (m *MockReservationRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.StockReservation, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.StockReservation), args.Error(1)
}

func (m *MockReservationRepository) UpdateStatus(ctx context.Context, id string, expected, next models.ReservationStatus, at time.Time) (bool, error) {
	args := m.Called(ctx, id, expected, next, at)

	return args.Bool(0), args.Error(1)
}

// MockTemplateRepository is a mock implementation of persistence.TemplateRepository interface.
type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) Save(ctx context.Context, template *models.WorkflowTemplate) error {
	args := m.Called(ctx, template)

	return args.Error(0)
}

func (m *MockTemplateRepository) GetByID(ctx context.Context, id string) (*models.WorkflowTemplate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowTemplate), args.Error(1)
}

func (m *MockTemplateRepository) List(ctx context.Context, entityType string) ([]*models.WorkflowTemplate, error) {
	args := m.Called(ctx, entityType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowTemplate), args.Error(1)
}

// MockInstanceRepository is a mock implementation of persistence.InstanceRepository interface.
type MockInstanceRepository struct {
	mock.Mock
}

func (m *MockInstanceRepository) Save(ctx context.Context, instance *models.WorkflowInstance) error {
	args := m.Called(ctx, instance)

	return args.Error(0)
}

func (m *MockInstanceRepository) GetByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowInstance), args.Error(1)
}

func (m *MockInstanceRepository) ListInFlight(ctx context.Context, limit int) ([]*models.WorkflowInstance, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowInstance), args.Error(1)
}

func (m *MockInstanceRepository) Update(ctx context.Context, instance *models.WorkflowInstance, expectedStatus models.InstanceStatus, expectedStepID string) (bool, error) {
	args := m.Called(ctx, instance, expectedStatus, expectedStepID)

	return args.Bool(0), args.Error(1)
}

// MockDelegationRepository is a mock implementation of persistence.DelegationRepository interface.
type MockDelegationRepository struct {
	mock.Mock
}

func (m *MockDelegationRepository) Save(ctx context.Context, delegation *models.WorkflowDelegation) error {
	args := m.Called(ctx, delegation)

	return args.Error(0)
}

func (m *MockDelegationRepository) ActiveForStep(ctx context.Context, instanceID, stepID string, now time.Time) (*models.WorkflowDelegation, error) {
	args := m.Called(ctx, instanceID, stepID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowDelegation), args.Error(1)
}

func (m *MockDelegationRepository) Deactivate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockDelegationRepository) DeactivateExpired(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)

	return args.Int(0), args.Error(1)
}

// MockAnalyticsRepository is a mock implementation of persistence.AnalyticsRepository interface.
type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) Append(ctx context.Context, record *models.WorkflowAnalytics) error {
	args := m.Called(ctx, record)

	return args.Error(0)
}

func (m *MockAnalyticsRepository) ListByTemplate(ctx context.Context, templateID string) ([]*models.WorkflowAnalytics, error) {
	args := m.Called(ctx, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowAnalytics), args.Error(1)
}

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	reservationRepo *MockReservationRepository
	templateRepo    *MockTemplateRepository
	instanceRepo    *MockInstanceRepository
	delegationRepo  *MockDelegationRepository
	analyticsRepo   *MockAnalyticsRepository
}

// NewMockPersistence creates a new MockPersistence with all mock repositories.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		reservationRepo: &MockReservationRepository{},
		templateRepo:    &MockTemplateRepository{},
		instanceRepo:    &MockInstanceRepository{},
		delegationRepo:  &MockDelegationRepository{},
		analyticsRepo:   &MockAnalyticsRepository{},
	}
}

// GetMockReservationRepository returns the underlying mock repository for setting up expectations.
func (m *MockPersistence) GetMockReservationRepository() *MockReservationRepository {
	return m.reservationRepo
}

func (m *MockPersistence) GetMockTemplateRepository() *MockTemplateRepository {
	return m.templateRepo
}

func (m *MockPersistence) GetMockInstanceRepository() *MockInstanceRepository {
	return m.instanceRepo
}

func (m *MockPersistence) GetMockDelegationRepository() *MockDelegationRepository {
	return m.delegationRepo
}

func (m *MockPersistence) GetMockAnalyticsRepository() *MockAnalyticsRepository {
	return m.analyticsRepo
}

func (m *MockPersistence) ReservationRepository() persistence.ReservationRepository {
	return m.reservationRepo
}

func (m *MockPersistence) TemplateRepository() persistence.TemplateRepository {
	return m.templateRepo
}

func (m *MockPersistence) InstanceRepository() persistence.InstanceRepository {
	return m.instanceRepo
}

func (m *MockPersistence) DelegationRepository() persistence.DelegationRepository {
	return m.delegationRepo
}

func (m *MockPersistence) AnalyticsRepository() persistence.AnalyticsRepository {
	return m.analyticsRepo
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
