// Package inventory provides the available-stock lookup consulted before a
// reservation is created.
package inventory

import (
	"context"

	"github.com/leduxro-prog/erp-core/pkg/models"
)

// AvailabilityChecker answers how much stock of a product is free in a
// warehouse. The reservation manager calls it before creating a reservation;
// the check lives outside the reservation entity itself.
type AvailabilityChecker interface {
	Available(ctx context.Context, productID int64, warehouseID string) (int64, error)
}

// CheckItems verifies every requested line against the checker and returns
// the first shortfall, if any.
func CheckItems(ctx context.Context, checker AvailabilityChecker, items []models.ReservationItem) (*models.ReservationItem, error) {
	for i := range items {
		available, err := checker.Available(ctx, items[i].ProductID, items[i].WarehouseID)
		if err != nil {
			return nil, err
		}

		if available < items[i].Quantity {
			return &items[i], nil
		}
	}

	return nil, nil
}
