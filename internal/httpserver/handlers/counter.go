package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/embedkit/embedkit/internal/httpserver/deps"
)

type createRequest struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

type deleteRequest struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

type setValueRequest struct {
	URL   string `json:"url"`
	Token string `json:"token"`
	Value int64  `json:"value"`
}

func CounterCreate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := decode(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		data, created, err := d.Services.Counter.Create(r.Context(), req.URL, req.Token)
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

func CounterGet(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := d.Services.Counter.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func CounterIncrement(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := d.Services.Counter.Increment(r.Context(), chi.URLParam(r, "id"), viewerHash(r, d))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func CounterSetValue(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setValueRequest
		if err := decode(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		data, err := d.Services.Counter.SetValue(r.Context(), req.URL, req.Token, req.Value)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func CounterDelete(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deleteRequest
		if err := decode(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if err := d.Services.Counter.Delete(r.Context(), req.URL, req.Token); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
