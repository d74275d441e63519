package control

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/signalsfoundry/orrery-sim/params"
)

var (
	// ErrUnknownBody is returned when a selection names a body the scene
	// does not contain.
	ErrUnknownBody = errors.New("unknown body")
	// ErrBadRequest covers malformed request bodies.
	ErrBadRequest = errors.New("bad request")
	// ErrNotReady is returned before the frame loop has published a snapshot.
	ErrNotReady = errors.New("scene not ready")
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// StatusFor maps control and parameter errors onto HTTP status codes.
func StatusFor(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, ErrUnknownBody),
		errors.Is(err, params.ErrUnknownField):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, params.ErrOutOfRange),
		errors.Is(err, params.ErrWrongType),
		errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, ErrNotReady):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, err error) {
	code, kind := StatusFor(err)
	writeJSON(w, code, errorBody{Error: kind, Message: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
