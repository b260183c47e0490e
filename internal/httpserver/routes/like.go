package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/embedkit/embedkit/internal/httpserver/deps"
	"github.com/embedkit/embedkit/internal/httpserver/handlers"
)

func init() { Register(registerLike) }

func registerLike(r chi.Router, d deps.Deps) {
	r.Route("/api/like", func(r chi.Router) {
		r.Post("/", handlers.LikeCreate(d))
		r.Delete("/", handlers.LikeDelete(d))
		r.Get("/{id}", handlers.LikeGet(d))
		r.Post("/{id}/toggle", handlers.LikeToggle(d))
	})
}
