package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes builds the chi router. Everything except /healthz lives under
// /api/v1.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.accessLog)
	r.Use(h.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{Status: http.StatusNotFound, Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Status: http.StatusMethodNotAllowed, Message: "method not allowed"})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, "ok", "healthy")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/refresh-token", h.refreshToken)

			r.Group(func(r chi.Router) {
				r.Use(h.accessGuard)
				r.Post("/logout", h.logout)
				r.Post("/change-password", h.changePassword)
				r.Get("/current-user", h.currentUser)
				r.Patch("/update-account", h.updateAccount)
				r.Patch("/avatar", h.updateAvatar)
				r.Patch("/cover-image", h.updateCoverImage)
				r.Get("/history", h.watchHistory)
				r.Get("/c/{username}", h.channelProfile)
				r.Post("/c/{username}/subscription", h.subscribe)
				r.Delete("/c/{username}/subscription", h.unsubscribe)
			})
		})

		r.Route("/videos", func(r chi.Router) {
			r.Use(h.accessGuard)
			r.Post("/", h.publishVideo)
			r.Get("/{videoID}", h.getVideo)
			r.Post("/{videoID}/views", h.recordView)
		})
	})

	return r
}
