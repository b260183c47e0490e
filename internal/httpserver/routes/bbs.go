package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/embedkit/embedkit/internal/httpserver/deps"
	"github.com/embedkit/embedkit/internal/httpserver/handlers"
)

func init() { Register(registerBBS) }

func registerBBS(r chi.Router, d deps.Deps) {
	r.Route("/api/bbs", func(r chi.Router) {
		r.Post("/", handlers.BBSCreate(d))
		r.Delete("/", handlers.BBSDelete(d))
		r.Post("/messages", handlers.BBSPostMessage(d))
		r.Put("/settings", handlers.BBSUpdateSettings(d))
		r.Get("/{id}", handlers.BBSGet(d))
		r.Put("/{id}/messages/{messageID}", handlers.BBSUpdateMessage(d))
		r.Delete("/{id}/messages/{messageID}", handlers.BBSRemoveMessage(d))
	})
}
