package routes

import (
	"linkhub/integrator/internal/api"
	"linkhub/integrator/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterAPIRoutes registers all API v1 routes and handlers
// This keeps API route registration separate from the main router setup
func RegisterAPIRoutes(r chi.Router, deps *api.Dependencies, limiter *middleware.RateLimiter) {
	wizardSvc := deps.Services.Wizard
	registry := deps.Services.Registry

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(limiter.Middleware)

		v1.Get("/provider-types", api.ProviderTypesHandler(deps.Services.Directory))

		// Setup wizard sessions
		v1.Route("/wizard/sessions", func(ws chi.Router) {
			ws.Post("/", api.OpenSessionHandler(wizardSvc))

			ws.Route("/{id}", func(s chi.Router) {
				s.Get("/", api.GetSessionHandler(wizardSvc))
				s.Delete("/", api.CancelSessionHandler(wizardSvc))

				s.Put("/provider", api.SelectProviderTypeHandler(wizardSvc))
				s.Put("/credentials", api.SetCredentialHandler(wizardSvc))
				s.Post("/secrets/toggle", api.ToggleSecretHandler(wizardSvc))
				s.Put("/description", api.SetDescriptionHandler(wizardSvc))
				s.Put("/mappings", api.SetFieldMappingHandler(wizardSvc))

				s.Post("/advance", api.AdvanceHandler(wizardSvc))
				s.Post("/retreat", api.RetreatHandler(wizardSvc))
				s.Post("/test", api.TestConnectionHandler(wizardSvc))
				s.Post("/complete", api.CompleteSessionHandler(wizardSvc))
			})
		})

		// Connected providers
		v1.Route("/providers", func(p chi.Router) {
			p.Get("/", api.ListProvidersHandler(registry))
			p.Get("/stats", api.ProviderStatsHandler(registry))
			p.Get("/{id}", api.GetProviderHandler(registry))
			p.Post("/{id}/test", api.RetestProviderHandler(registry))
			p.Delete("/{id}", api.DisconnectProviderHandler(registry))
		})

		v1.Get("/logs", api.ListSyncLogsHandler(deps.Services.SyncLogs))
	})
}
