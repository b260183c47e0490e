package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/embedkit/embedkit/internal/httpserver/deps"
	"github.com/embedkit/embedkit/internal/service"
)

type bbsCreateRequest struct {
	URL      string                    `json:"url"`
	Token    string                    `json:"token"`
	Settings service.BBSSettingsParams `json:"settings"`
}

type postMessageRequest struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Author string `json:"author"`
	Body   string `json:"body"`
	Tag    string `json:"tag,omitempty"`
	Icon   string `json:"icon,omitempty"`
}

type updateMessageRequest struct {
	Token  string `json:"token,omitempty"` // owner override, optional
	Author string `json:"author,omitempty"`
	Body   string `json:"body"`
}

type moderateRequest struct {
	Token string `json:"token,omitempty"` // owner override, optional
}

type updateSettingsRequest struct {
	URL      string                    `json:"url"`
	Token    string                    `json:"token"`
	Settings service.BBSSettingsParams `json:"settings"`
}

func BBSCreate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bbsCreateRequest
		if err := decode(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		data, created, err := d.Services.BBS.Create(r.Context(), req.URL, req.Token, req.Settings)
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

// BBSGet serves one page of the board; ?page=N, defaulting to 1.
func BBSGet(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				page = n
			}
		}
		data, err := d.Services.BBS.Messages(r.Context(), chi.URLParam(r, "id"), page)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func BBSPostMessage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req postMessageRequest
		if err := decode(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		data, err := d.Services.BBS.PostMessage(r.Context(), req.URL, req.Token,
			req.Author, req.Body, req.Tag, req.Icon, viewerHash(r, d))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, data)
	}
}

func BBSUpdateMessage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateMessageRequest
		if err := decode(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		data, err := d.Services.BBS.UpdateMessage(r.Context(), chi.URLParam(r, "id"),
			chi.URLParam(r, "messageID"), req.Author, req.Body, viewerHash(r, d), req.Token)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func BBSRemoveMessage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req moderateRequest
		if err := decode(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		data, err := d.Services.BBS.RemoveMessage(r.Context(), chi.URLParam(r, "id"),
			chi.URLParam(r, "messageID"), viewerHash(r, d), req.Token)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func BBSUpdateSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateSettingsRequest
		if err := decode(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		data, err := d.Services.BBS.UpdateSettings(r.Context(), req.URL, req.Token, req.Settings)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func BBSDelete(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deleteRequest
		if err := decode(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if err := d.Services.BBS.Delete(r.Context(), req.URL, req.Token); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
