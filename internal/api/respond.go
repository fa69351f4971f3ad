package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pulseaid/pulseaid/internal/app"
	"github.com/pulseaid/pulseaid/internal/docsum"
	"github.com/pulseaid/pulseaid/internal/questionnaire"
	"github.com/pulseaid/pulseaid/internal/report"
	"github.com/pulseaid/pulseaid/internal/translate"
)

// errorBody is the JSON envelope for error responses.
type errorBody struct {
	Error string `json:"error"`
}

// writeJSON encodes v as JSON and writes it with the given status code. On
// encoding failure it falls back to a plain 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failure"}`, http.StatusInternalServerError)
	}
}

// writeError maps err to an HTTP status and writes the error envelope.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, app.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, questionnaire.ErrUnknownVariant),
		errors.Is(err, report.ErrUnknownVariant):
		status = http.StatusNotFound
	case errors.Is(err, questionnaire.ErrSessionClosed):
		status = http.StatusConflict
	case errors.Is(err, docsum.ErrUnsupportedFormat):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, translate.ErrUnsupportedLanguage):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// writeBadRequest writes a 400 with the given message.
func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

// decodeBody decodes the request body into v, limited to 1 MiB.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
