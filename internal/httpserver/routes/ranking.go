package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/embedkit/embedkit/internal/httpserver/deps"
	"github.com/embedkit/embedkit/internal/httpserver/handlers"
)

func init() { Register(registerRanking) }

func registerRanking(r chi.Router, d deps.Deps) {
	r.Route("/api/ranking", func(r chi.Router) {
		r.Post("/", handlers.RankingCreate(d))
		r.Delete("/", handlers.RankingDelete(d))
		r.Post("/scores", handlers.RankingSubmitScore(d))
		r.Put("/scores", handlers.RankingUpdateScore(d))
		r.Delete("/scores", handlers.RankingRemoveEntry(d))
		r.Post("/clear", handlers.RankingClear(d))
		r.Get("/{id}", handlers.RankingGet(d))
	})
}
