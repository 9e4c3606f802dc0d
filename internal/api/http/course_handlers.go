package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/classpoint/lms-backend/internal/rbac"
	"github.com/classpoint/lms-backend/internal/roster"
)

// POST /courses  { "name": "...", "description": "..." }
func CreateCourseHandler(rst *roster.SQLRoster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		actor := rbac.SubjectFromContext(r.Context())
		c := roster.Course{
			ID:          uuid.NewString(),
			Name:        req.Name,
			Description: req.Description,
			CreatedBy:   actor,
		}
		if err := rst.CreateCourse(r.Context(), c); err != nil {
			writeErr(w, err)
			return
		}
		// The creator runs the course.
		if err := rst.AddMember(r.Context(), roster.Member{CourseID: c.ID, UserID: actor, Role: roster.RoleEducator}); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, c)
	}
}

// GET /courses — courses the caller belongs to.
func ListCoursesHandler(rst *roster.SQLRoster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := rst.ListCoursesForUser(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, list)
	}
}

// POST /courses/{courseID}/members  { "user_id": "...", "role": "student|educator" }
func AddMemberHandler(rst *roster.SQLRoster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		actor := rbac.SubjectFromContext(r.Context())
		if err := requireCourseAdmin(r, rst, actor, courseID); err != nil {
			writeErr(w, err)
			return
		}
		var req struct {
			UserID string `json:"user_id"`
			Role   string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if req.UserID == "" {
			http.Error(w, "user_id required", http.StatusBadRequest)
			return
		}
		if req.Role == "" {
			req.Role = roster.RoleStudent
		}
		err := rst.AddMember(r.Context(), roster.Member{CourseID: courseID, UserID: req.UserID, Role: req.Role})
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DELETE /courses/{courseID}/members/{userID}
func RemoveMemberHandler(rst *roster.SQLRoster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		actor := rbac.SubjectFromContext(r.Context())
		if err := requireCourseAdmin(r, rst, actor, courseID); err != nil {
			writeErr(w, err)
			return
		}
		if err := rst.RemoveMember(r.Context(), courseID, chi.URLParam(r, "userID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// requireCourseAdmin lets a global admin or an educator of the course manage
// its membership.
func requireCourseAdmin(r *http.Request, rst *roster.SQLRoster, actor, courseID string) error {
	if rbac.RoleFromContext(r.Context()) == "admin" {
		// Still surface unknown courses as 404.
		_, err := rst.GetCourse(r.Context(), courseID)
		return err
	}
	educator, err := rst.IsEducator(r.Context(), actor, courseID)
	if err != nil {
		return err
	}
	if !educator {
		return errForbidden
	}
	return nil
}
