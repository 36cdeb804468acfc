package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/leduxro-prog/erp-core/pkg/models"
)

// MockNotifier is a mock implementation of notification.Notifier interface.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) InstanceRejected(ctx context.Context, instance *models.WorkflowInstance, stepID, actorID, reason string) {
	m.Called(ctx, instance, stepID, actorID, reason)
}

func (m *MockNotifier) InstanceEscalated(ctx context.Context, instance *models.WorkflowInstance, stepID string) {
	m.Called(ctx, instance, stepID)
}

func (m *MockNotifier) ReservationExpired(ctx context.Context, reservation *models.StockReservation) {
	m.Called(ctx, reservation)
}

// MockAvailabilityChecker is a mock implementation of inventory.AvailabilityChecker interface.
type MockAvailabilityChecker struct {
	mock.Mock
}

func (m *MockAvailabilityChecker) Available(ctx context.Context, productID int64, warehouseID string) (int64, error) {
	args := m.Called(ctx, productID, warehouseID)

	return args.Get(0).(int64), args.Error(1)
}
