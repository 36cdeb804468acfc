package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leduxro-prog/erp-core/pkg/inventory"
)

// NewInventory builds the availability checker. An empty redisURL yields the
// in-memory checker, which treats everything as out of stock until seeded and
// is only useful for local experiments.
func NewInventory(ctx context.Context, logger *slog.Logger, redisURL string) inventory.AvailabilityChecker {
	if redisURL == "" {
		logger.Warn("No REDIS_URL configured, using in-memory inventory checker")

		return inventory.NewMemoryChecker()
	}

	checker, err := inventory.NewRedisChecker(ctx, redisURL, "")
	if err != nil {
		panic(fmt.Errorf("failed to create Redis inventory checker: %w", err))
	}

	return checker
}
