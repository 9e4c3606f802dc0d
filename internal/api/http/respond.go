package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/classpoint/lms-backend/internal/quiz"
	"github.com/classpoint/lms-backend/internal/roster"
)

var errForbidden = fmt.Errorf("not allowed for this course: %w", quiz.ErrForbidden)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the engine's error classes onto HTTP statuses. Anything not in
// the taxonomy is a 500.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrNotFound) || errors.Is(err, roster.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, quiz.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, quiz.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, quiz.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
