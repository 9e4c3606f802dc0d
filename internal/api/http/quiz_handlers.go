package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/classpoint/lms-backend/internal/quiz"
	"github.com/classpoint/lms-backend/internal/rbac"
)

// GET /courses/{courseID}/quizzes
func CourseQuizzesHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := strings.TrimSpace(chi.URLParam(r, "courseID"))
		if courseID == "" {
			http.Error(w, "courseID required", http.StatusBadRequest)
			return
		}
		list, err := svc.Catalog(r.Context(), rbac.SubjectFromContext(r.Context()), courseID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, list)
	}
}

// POST /courses/{courseID}/quizzes
func CreateQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := strings.TrimSpace(chi.URLParam(r, "courseID"))
		var in quiz.QuizInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		q, err := svc.CreateQuiz(r.Context(), rbac.SubjectFromContext(r.Context()), courseID, in)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, q)
	}
}

// GET /quizzes/{quizID}
func GetQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, err := svc.GetQuizDetail(r.Context(), rbac.SubjectFromContext(r.Context()), chi.URLParam(r, "quizID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, detail)
	}
}

type updateQuizReq struct {
	quiz.QuizInput
	// Replacing a quiz destroys every existing submission and its marks.
	// The caller must acknowledge that explicitly.
	DiscardAttempts bool `json:"discard_attempts"`
}

// PUT /quizzes/{quizID}
func UpdateQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateQuizReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		err := svc.UpdateQuiz(r.Context(), rbac.SubjectFromContext(r.Context()),
			chi.URLParam(r, "quizID"), req.QuizInput, req.DiscardAttempts)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DELETE /quizzes/{quizID}
func DeleteQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := svc.DeleteQuiz(r.Context(), rbac.SubjectFromContext(r.Context()), chi.URLParam(r, "quizID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /quizzes/{quizID}/marks-released  { "released": true }
func SetMarksReleasedHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Released bool `json:"released"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		err := svc.SetMarksReleased(r.Context(), rbac.SubjectFromContext(r.Context()),
			chi.URLParam(r, "quizID"), req.Released)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
