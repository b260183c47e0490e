package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/embedkit/embedkit/internal/httpserver/deps"
)

func LikeCreate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := decode(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		data, created, err := d.Services.Like.Create(r.Context(), req.URL, req.Token)
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

func LikeGet(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := d.Services.Like.Get(r.Context(), chi.URLParam(r, "id"), viewerHash(r, d))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func LikeToggle(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := d.Services.Like.Toggle(r.Context(), chi.URLParam(r, "id"), viewerHash(r, d))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func LikeDelete(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deleteRequest
		if err := decode(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if err := d.Services.Like.Delete(r.Context(), req.URL, req.Token); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
