package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/vidtube/internal/common"
)

// envelope is the body of every response. Data is omitted on errors.
type envelope struct {
	Status  int    `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, status int, data any, message string) {
	if data == nil {
		data = struct{}{}
	}
	writeJSON(w, status, envelope{Status: status, Data: data, Message: message})
}

// errorStatus maps an error kind to its HTTP status. ok is false for
// errors that carry no kind.
func errorStatus(err error) (status int, ok bool) {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, true
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict, true
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, true
	case errors.Is(err, common.ErrDependency):
		return http.StatusInternalServerError, true
	}
	return http.StatusInternalServerError, false
}

// fail writes err as an error envelope. Unclassified errors are logged and
// answered with a generic message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, ok := errorStatus(err)
	if !ok {
		h.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, status, envelope{Status: status, Message: "internal server error"})
		return
	}
	writeJSON(w, status, envelope{Status: status, Message: common.Message(err)})
}
