package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(recoverJSON)
	r.Use(noSniff)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/widgets", func(r chi.Router) {
		r.Get("/", s.handleListWidgets)
		r.Post("/", s.handleCreateWidget)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetWidget)
			r.Delete("/", s.handleDeleteWidget)
			r.Post("/reveal", s.handleReveal)
			r.Post("/reset", s.handleReset)
			r.Post("/resize", s.handleResize)
			r.Post("/auto-search", s.handleStartAutoSearch)
			r.Delete("/auto-search", s.handleCancelAutoSearch)
			r.Get("/stats", s.handleStats)
			r.Get("/plays", s.handlePlays)
			r.Get("/events", s.handleEvents)
		})
	})

	origins := s.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
		},
		AllowedOrigins: origins,
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Location"},
	})
	return c.Handler(r)
}
