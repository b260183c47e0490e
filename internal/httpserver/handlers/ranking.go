package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/embedkit/embedkit/internal/httpserver/deps"
)

type rankingCreateRequest struct {
	URL        string `json:"url"`
	Token      string `json:"token"`
	MaxEntries int    `json:"maxEntries,omitempty"`
}

type scoreRequest struct {
	URL   string  `json:"url"`
	Token string  `json:"token"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type removeEntryRequest struct {
	URL   string `json:"url"`
	Token string `json:"token"`
	Name  string `json:"name"`
}

func RankingCreate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rankingCreateRequest
		if err := decode(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		data, created, err := d.Services.Ranking.Create(r.Context(), req.URL, req.Token, req.MaxEntries)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, data)
	}
}

func RankingGet(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := d.Services.Ranking.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func RankingSubmitScore(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scoreRequest
		if err := decode(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		data, err := d.Services.Ranking.SubmitScore(r.Context(), req.URL, req.Token, req.Name, req.Score, viewerHash(r, d))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func RankingUpdateScore(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scoreRequest
		if err := decode(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		data, err := d.Services.Ranking.UpdateScore(r.Context(), req.URL, req.Token, req.Name, req.Score)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func RankingRemoveEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req removeEntryRequest
		if err := decode(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		data, err := d.Services.Ranking.RemoveEntry(r.Context(), req.URL, req.Token, req.Name)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func RankingClear(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deleteRequest
		if err := decode(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		data, err := d.Services.Ranking.Clear(r.Context(), req.URL, req.Token)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func RankingDelete(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deleteRequest
		if err := decode(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if err := d.Services.Ranking.Delete(r.Context(), req.URL, req.Token); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
