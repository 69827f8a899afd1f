package server

import (
	"encoding/json"
	"net/http"

	"articlehub/internal/util"
	"articlehub/services/api/internal/app"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
	Data    any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: msg, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg})
}

// writeAppError maps a service error to one response. 5xx errors are logged
// with their cause; the client only sees the public message.
func writeAppError(w http.ResponseWriter, r *http.Request, op string, err error) {
	kind := app.KindOf(err)
	status := kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		util.LoggerFromContext(r.Context()).Error(op+" failed", "kind", kind.String(), "err", err)
	}
	writeError(w, status, app.PublicMessage(err))
}
