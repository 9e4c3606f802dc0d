package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classpoint/lms-backend/internal/quiz"
	"github.com/classpoint/lms-backend/internal/rbac"
)

// POST /quizzes/{quizID}/submissions
// Starts the caller's one attempt; the response carries the server-side start
// instant the personal timer is anchored to.
func StartSubmissionHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startedAt, err := svc.StartSubmission(r.Context(), rbac.SubjectFromContext(r.Context()), chi.URLParam(r, "quizID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]int64{"started_at": startedAt})
	}
}

// PUT /quizzes/{quizID}/submissions/answers
// Full replace: answers not present in the body revert to unanswered.
func SubmitAnswersHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Answers []quiz.Answer `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		err := svc.SubmitAnswers(r.Context(), rbac.SubjectFromContext(r.Context()), chi.URLParam(r, "quizID"), req.Answers)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /quizzes/{quizID}/submissions/{userID}
func GetSubmissionHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.GetSubmissionAnswers(r.Context(), rbac.SubjectFromContext(r.Context()),
			chi.URLParam(r, "quizID"), chi.URLParam(r, "userID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, view)
	}
}
