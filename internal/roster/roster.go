// Package roster owns courses and course membership. The quiz engine consumes
// only the Roster interface; the rest is the course CRUD the HTTP layer mounts.
package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Per-course roles. A user's global role (rbac) gates routes; the course role
// decides what they may do inside one course.
const (
	RoleStudent  = "student"
	RoleEducator = "educator"
)

// Roster answers the membership questions the quiz engine asks before any
// operation.
type Roster interface {
	IsEnrolled(ctx context.Context, userID, courseID string) (bool, error)
	IsEducator(ctx context.Context, userID, courseID string) (bool, error)
}

type Course struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"created_by"`
}

type Member struct {
	CourseID string `json:"course_id"`
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
}

var ErrNotFound = errors.New("not found")

// SQLRoster implements Roster and course administration over the shared DB.
type SQLRoster struct {
	db *sql.DB
}

func NewSQLRoster(db *sql.DB) *SQLRoster { return &SQLRoster{db: db} }

func (r *SQLRoster) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	return r.hasRole(ctx, userID, courseID, RoleStudent)
}

func (r *SQLRoster) IsEducator(ctx context.Context, userID, courseID string) (bool, error) {
	return r.hasRole(ctx, userID, courseID, RoleEducator)
}

func (r *SQLRoster) hasRole(ctx context.Context, userID, courseID, role string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM course_members
		WHERE course_id=$1 AND user_id=$2 AND role=$3`, courseID, userID, role).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *SQLRoster) CreateCourse(ctx context.Context, c Course) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO courses (id, name, description, created_by)
		VALUES ($1,$2,$3,$4)`, c.ID, c.Name, c.Description, c.CreatedBy)
	return err
}

func (r *SQLRoster) GetCourse(ctx context.Context, courseID string) (Course, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, description, created_by
		FROM courses WHERE id=$1`, courseID)
	var c Course
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return Course{}, fmt.Errorf("course %s: %w", courseID, ErrNotFound)
	}
	if err != nil {
		return Course{}, err
	}
	return c, nil
}

func (r *SQLRoster) AddMember(ctx context.Context, m Member) error {
	role := strings.ToLower(m.Role)
	if role != RoleStudent && role != RoleEducator {
		return fmt.Errorf("unknown course role %q", m.Role)
	}
	if _, err := r.GetCourse(ctx, m.CourseID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO course_members (course_id, user_id, role)
		VALUES ($1,$2,$3)
		ON CONFLICT (course_id, user_id) DO UPDATE SET role=EXCLUDED.role`,
		m.CourseID, m.UserID, role)
	return err
}

func (r *SQLRoster) RemoveMember(ctx context.Context, courseID, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM course_members
		WHERE course_id=$1 AND user_id=$2`, courseID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("member %s of course %s: %w", userID, courseID, ErrNotFound)
	}
	return nil
}

// ListCoursesForUser returns the courses the user belongs to, in name order.
func (r *SQLRoster) ListCoursesForUser(ctx context.Context, userID string) ([]Course, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT c.id, c.name, c.description, c.created_by
		FROM courses c JOIN course_members m ON m.course_id = c.id
		WHERE m.user_id=$1 ORDER BY c.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Course{}
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedBy); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
