// Package cmd provides the wiring helpers shared by the erp-core binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/leduxro-prog/erp-core/pkg/persistence"
	"github.com/leduxro-prog/erp-core/pkg/persistence/file"
	"github.com/leduxro-prog/erp-core/pkg/persistence/postgresql"
)

// NewPersistence builds a persistence layer from a database URL. postgres://
// URLs get the PostgreSQL implementation, everything else falls back to the
// file store for local development.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parseScheme(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic("failed to initialize PostgreSQL persistence: " + err.Error())
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parseScheme(databaseURL string) string {
	parts := strings.SplitN(databaseURL, "://", 2)
	if len(parts) < 2 {
		return "file"
	}

	return parts[0]
}
