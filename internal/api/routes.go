package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS - the console UI runs on a separate dev origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		// Dashboard - all data in one call
		r.Get("/dashboard", h.GetDashboard)

		// Field catalog for the rule builder
		r.Get("/fields", h.ListFields)
		r.Get("/fields/operators", h.ListOperators)

		// Contacts
		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", h.ListContacts)
			r.Post("/", h.CreateContact)

			r.Route("/{contactID}", func(r chi.Router) {
				r.Get("/", h.GetContact)
				r.Put("/", h.UpdateContact)
				r.Delete("/", h.DeleteContact)
			})
		})

		// Segments
		r.Route("/segments", func(r chi.Router) {
			r.Get("/", h.ListSegments)
			r.Post("/", h.CreateSegment)
			r.Post("/validate", h.ValidateSegmentRules)
			r.Post("/preview", h.PreviewSegment)

			r.Route("/{segmentID}", func(r chi.Router) {
				r.Get("/", h.GetSegment)
				r.Put("/", h.UpdateSegment)
				r.Delete("/", h.DeleteSegment)
				r.Post("/refresh", h.RefreshSegment)
				r.Get("/contacts", h.ResolveSegment)
				r.Get("/snapshots", h.ListSegmentSnapshots)
				r.Get("/snapshots/download", h.DownloadSegmentSnapshot)

				r.Route("/members", func(r chi.Router) {
					r.Get("/", h.ListSegmentMembers)
					r.Post("/", h.AddSegmentMembers)
					r.Delete("/", h.RemoveSegmentMembers)
				})
			})
		})

		// Campaigns
		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Post("/", h.CreateCampaign)

			r.Route("/{campaignID}", func(r chi.Router) {
				r.Get("/", h.GetCampaign)
				r.Put("/", h.UpdateCampaign)
				r.Delete("/", h.DeleteCampaign)
				r.Post("/send", h.SendCampaign)
				r.Post("/cancel", h.CancelCampaign)
				r.Get("/audience", h.PreviewCampaignAudience)
			})
		})

		// Templates
		r.Route("/templates", func(r chi.Router) {
			r.Get("/", h.ListTemplates)
			r.Post("/", h.CreateTemplate)

			r.Route("/{templateID}", func(r chi.Router) {
				r.Get("/", h.GetTemplate)
				r.Put("/", h.UpdateTemplate)
				r.Delete("/", h.DeleteTemplate)
			})
		})
	})

	return r
}
