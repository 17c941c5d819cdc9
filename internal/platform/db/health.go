package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats is a snapshot of the clinic store's connection pool.
type PoolStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
	AcquireCount  int64 `json:"acquire_count"`
}

// DatabaseHealth reports the outcome of the health probe against the
// Postgres instance backing schedules, appointments, and change requests.
type DatabaseHealth struct {
	Reachable bool       `json:"reachable"`
	PingMs    int64      `json:"ping_ms"`
	Pool      *PoolStats `json:"pool"`
}

// HealthReport is the body served on /health.
type HealthReport struct {
	Service  string         `json:"service"`
	Status   string         `json:"status"`
	Database DatabaseHealth `json:"database"`
	Error    string         `json:"error,omitempty"`
}

func snapshotPool(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		MaxConns:      stat.MaxConns(),
		AcquireCount:  stat.AcquireCount(),
	}
}

// buildHealthReport assembles the report and its HTTP status from the probe
// outcome. Split out from the handler so it can be exercised without a pool.
func buildHealthReport(stats *PoolStats, pingLatency time.Duration, pingErr error) (int, *HealthReport) {
	report := &HealthReport{
		Service: "clinic-server",
		Status:  "healthy",
		Database: DatabaseHealth{
			Reachable: pingErr == nil,
			PingMs:    pingLatency.Milliseconds(),
			Pool:      stats,
		},
	}
	if pingErr != nil {
		report.Status = "unhealthy"
		report.Error = pingErr.Error()
		return http.StatusServiceUnavailable, report
	}
	return http.StatusOK, report
}

// HealthHandler probes the booking database and reports pool pressure.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		start := time.Now()
		pingErr := pool.Ping(ctx)
		status, report := buildHealthReport(snapshotPool(pool), time.Since(start), pingErr)
		return c.JSON(status, report)
	}
}
