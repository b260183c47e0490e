package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/embedkit/embedkit/internal/httpserver/deps"
	"github.com/embedkit/embedkit/internal/httpserver/handlers"
)

func init() { Register(registerCounter) }

func registerCounter(r chi.Router, d deps.Deps) {
	r.Route("/api/counter", func(r chi.Router) {
		r.Post("/", handlers.CounterCreate(d))
		r.Delete("/", handlers.CounterDelete(d))
		r.Put("/value", handlers.CounterSetValue(d))
		r.Get("/{id}", handlers.CounterGet(d))
		r.Post("/{id}/increment", handlers.CounterIncrement(d))
	})
}
