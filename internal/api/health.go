package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"linkhub/integrator/internal/models/entities"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// HealthCheckHandler handles GET /healthCheck. rdb may be nil when the
// service runs without Redis.
func HealthCheckHandler(db *sqlx.DB, rdb *redis.Client, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		services := make(map[string]entities.ServiceStatus)

		// Check postgres
		pgstatus := "ok"
		pgDetails := "Postgres Connected"
		if err := db.PingContext(ctx); err != nil {
			pgstatus = "down"
			pgDetails = err.Error()
		}
		services["postgres"] = entities.ServiceStatus{
			Status:  pgstatus,
			Details: pgDetails,
		}

		// Check redis
		if rdb != nil {
			redisStatus := "ok"
			redisDetails := "Redis Connected"
			if err := rdb.Ping(ctx).Err(); err != nil {
				redisStatus = "down"
				redisDetails = err.Error()
			}
			services["redis"] = entities.ServiceStatus{
				Status:  redisStatus,
				Details: redisDetails,
			}
		}

		overallStatus := "ok"
		for _, svc := range services {
			if svc.Status != "ok" {
				overallStatus = "down"
				break
			}
		}

		uptime := time.Since(upSince).Round(time.Second).String()

		resp := entities.HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			Uptime:   uptime,
		}

		w.Header().Set("Content-Type", "application/json")
		if overallStatus != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
