package api

import (
	"context"
	"net/http"
	"time"

	"linkhub/integrator/internal/common"
	"linkhub/integrator/internal/models/dtos"
	"linkhub/integrator/internal/providers"

	"github.com/go-chi/chi/v5"
)

// ProviderRegistry is the registry surface used by the handlers
type ProviderRegistry interface {
	List(ctx context.Context, filter dtos.ProviderFilter) ([]dtos.ProviderResponse, error)
	Get(ctx context.Context, id string) (*dtos.ProviderResponse, error)
	Disconnect(ctx context.Context, id string) error
	Retest(ctx context.Context, id string) (*providers.TestResult, error)
	Stats(ctx context.Context) (*dtos.ProviderStats, error)
}

// ListProvidersHandler handles GET /api/v1/providers
func ListProvidersHandler(registry ProviderRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		q := r.URL.Query()

		category := q.Get("category")
		if category == "" {
			category = q.Get("type")
		}
		filter := dtos.ProviderFilter{
			Search:   q.Get("search"),
			Status:   q.Get("status"),
			Category: category,
		}

		list, err := registry.List(r.Context(), filter)
		if err != nil {
			handleServiceError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Providers fetched", list)
	}
}

// GetProviderHandler handles GET /api/v1/providers/{id}
func GetProviderHandler(registry ProviderRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		provider, err := registry.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Provider fetched", provider)
	}
}

// ProviderStatsHandler handles GET /api/v1/providers/stats
func ProviderStatsHandler(registry ProviderRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		stats, err := registry.Stats(r.Context())
		if err != nil {
			handleServiceError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Provider stats fetched", stats)
	}
}

// RetestProviderHandler handles POST /api/v1/providers/{id}/test
func RetestProviderHandler(registry ProviderRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		result, err := registry.Retest(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, initTime, err)
			return
		}

		message := "Connection test passed"
		if !result.Success {
			message = "Connection test failed"
		}
		common.RespondSuccess(w, initTime, message, result)
	}
}

// DisconnectProviderHandler handles DELETE /api/v1/providers/{id}
func DisconnectProviderHandler(registry ProviderRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		if err := registry.Disconnect(r.Context(), chi.URLParam(r, "id")); err != nil {
			handleServiceError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Provider disconnected", nil)
	}
}
