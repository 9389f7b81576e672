package diag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/metailurini/sqlhelper/apperrors"
	"github.com/metailurini/sqlhelper/sqlhelper"
)

var versionQueries = map[string]string{
	"pgx":        "SELECT version()",
	"postgres":   "SELECT version()",
	"postgresql": "SELECT version()",
	"sqlite":     "SELECT sqlite_version()",
	"sqlite3":    "SELECT sqlite_version()",
}

// RecordServerVersion asks the database for its version string and logs it
// alongside the round-trip latency. It returns the version and any error
// encountered while querying the database.
func RecordServerVersion(ctx context.Context, conn sqlhelper.Conn, driver string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	query, ok := versionQueries[strings.ToLower(driver)]
	if !ok {
		return "", fmt.Errorf("version query for driver %q: %w", driver, apperrors.ErrNotSupported)
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	version, ok, err := sqlhelper.QueryScalar(probeCtx, conn, query)
	if err != nil {
		logger.Warn("server version probe failed", "err", err)
		return "", err
	}
	if !ok {
		version = "unknown"
	}
	logger.Info("server version", "driver", driver, "version", version, "latency", time.Since(start))
	return version, nil
}
