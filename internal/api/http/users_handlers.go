package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/classpoint/lms-backend/internal/rbac"
)

type userRow struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Role     string `json:"role"`               // student | educator | admin
	Password string `json:"password,omitempty"` // plaintext, hashed on insert
}

// POST /users/bulk — upsert a JSON array of accounts.
func BulkUpsertUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []userRow
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			http.Error(w, "expected JSON array", http.StatusBadRequest)
			return
		}
		ins, upd, err := upsertUsers(r.Context(), db, rows)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"inserted": ins, "updated": upd})
	}
}

func upsertUsers(ctx context.Context, db *sql.DB, rows []userRow) (inserted, updated int, err error) {
	for _, row := range rows {
		if strings.TrimSpace(row.Username) == "" {
			continue
		}
		role := row.Role
		if role == "" {
			role = "student"
		}
		var existingID string
		err = db.QueryRowContext(ctx, `SELECT id FROM users WHERE username=$1`, row.Username).Scan(&existingID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			id := row.ID
			if id == "" {
				id = uuid.NewString()
			}
			pass := row.Password
			if pass == "" {
				pass = row.Username
			}
			var hash []byte
			hash, err = bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
			if err != nil {
				return
			}
			_, err = db.ExecContext(ctx, `INSERT INTO users (id, username, password_hash, role)
				VALUES ($1,$2,$3,$4)`, id, row.Username, string(hash), role)
			if err != nil {
				return
			}
			inserted++
		case err == nil:
			_, err = db.ExecContext(ctx, `UPDATE users SET role=$1 WHERE id=$2`, role, existingID)
			if err != nil {
				return
			}
			if row.Password != "" {
				var hash []byte
				hash, err = bcrypt.GenerateFromPassword([]byte(row.Password), bcrypt.DefaultCost)
				if err != nil {
					return
				}
				_, err = db.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, string(hash), existingID)
				if err != nil {
					return
				}
			}
			updated++
		default:
			return
		}
	}
	return inserted, updated, nil
}

// GET /users?role=student
func ListUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		var rows *sql.Rows
		var err error
		if role == "" {
			rows, err = db.QueryContext(r.Context(), `SELECT id, username, role FROM users ORDER BY username`)
		} else {
			rows, err = db.QueryContext(r.Context(), `SELECT id, username, role FROM users WHERE role=$1 ORDER BY username`, role)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rows.Close()
		out := []userRow{}
		for rows.Next() {
			var u userRow
			if err := rows.Scan(&u.ID, &u.Username, &u.Role); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			out = append(out, u)
		}
		writeJSON(w, out)
	}
}

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// POST /users/change-password
func ChangePasswordHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req changePasswordReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if req.NewPassword == "" {
			http.Error(w, "new password required", http.StatusBadRequest)
			return
		}

		var storedHash string
		err := db.QueryRowContext(r.Context(), `SELECT password_hash FROM users WHERE id=$1`, userID).Scan(&storedHash)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "user not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.OldPassword)) != nil {
			http.Error(w, "incorrect old password", http.StatusForbidden)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), 12)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		_, err = db.ExecContext(r.Context(), `UPDATE users SET password_hash=$1 WHERE id=$2`, hash, userID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
