package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
	Healthy         bool   `json:"healthy"`
}

// GetPoolStats returns connection pool statistics.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
		Healthy:         stat.TotalConns() > 0,
	}
}

// Probe is a named dependency check reported by the health endpoint.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// runProbes returns a status per probe and whether all passed.
func runProbes(ctx context.Context, probes []Probe) (map[string]string, bool) {
	results := make(map[string]string, len(probes))
	healthy := true
	for _, p := range probes {
		if err := p.Check(ctx); err != nil {
			results[p.Name] = err.Error()
			healthy = false
			continue
		}
		results[p.Name] = "ok"
	}
	return results, healthy
}

// HealthHandler returns a handler for the dependency health check endpoint.
// The database probe always runs first; extra probes cover optional backends
// such as the catalog cache.
func HealthHandler(pool *pgxpool.Pool, extra ...Probe) echo.HandlerFunc {
	probes := append([]Probe{{Name: "database", Check: pool.Ping}}, extra...)
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		checks, ok := runProbes(ctx, probes)
		stats := GetPoolStats(pool)

		if !ok {
			stats.Healthy = false
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
				"pool":   stats,
			})
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"checks": checks,
			"pool":   stats,
		})
	}
}
