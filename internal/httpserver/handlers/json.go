// Package handlers holds the HTTP handlers. They are deliberately thin:
// decode, call one service operation, encode. No widget logic lives here.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/embedkit/embedkit/internal/apperr"
	"github.com/embedkit/embedkit/internal/domain"
	"github.com/embedkit/embedkit/internal/httpserver/deps"
	"github.com/embedkit/embedkit/internal/logger"
	"github.com/embedkit/embedkit/internal/utils"
)

const maxBodyBytes = 64 << 10

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy to HTTP statuses. Storage failures log
// their cause but never leak it to the client.
func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	status := apperr.HTTPStatus(err)

	var body errorBody
	body.Error.Code = string(apperr.CodeOf(err))
	if status == http.StatusInternalServerError {
		log.Error("request failed", logger.Error(err))
		body.Error.Message = "internal error"
	} else {
		body.Error.Message = err.Error()
	}
	writeJSON(w, status, body)
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Validationf("invalid request body: %v", err)
	}
	return nil
}

// viewerHash derives the caller's anonymous fingerprint from client IP and
// user agent. It is the only place a fingerprint is ever computed.
func viewerHash(r *http.Request, d deps.Deps) string {
	return domain.ViewerHash(utils.ClientIP(r, d.TrustProxy), r.UserAgent())
}
