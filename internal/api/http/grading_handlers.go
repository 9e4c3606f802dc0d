package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classpoint/lms-backend/internal/quiz"
	"github.com/classpoint/lms-backend/internal/rbac"
)

// GET /quizzes/{quizID}/submissions/{userID}/marks
func GetMarksHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.GetMarks(r.Context(), rbac.SubjectFromContext(r.Context()),
			chi.URLParam(r, "quizID"), chi.URLParam(r, "userID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, view)
	}
}

// POST /quizzes/{quizID}/submissions/{userID}/marks
// Applies manual marks to short-answer responses of a finished attempt.
// Partial marking is fine; unmentioned questions keep their current mark.
func MarkSubmissionHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Marks []quiz.MarkEntry `json:"marks"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		err := svc.MarkSubmission(r.Context(), rbac.SubjectFromContext(r.Context()),
			chi.URLParam(r, "quizID"), chi.URLParam(r, "userID"), req.Marks)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
