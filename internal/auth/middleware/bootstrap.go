package auth

import (
	"context"
	"database/sql"
)

// EnsureBootstrapAdmin inserts the configured admin account when the users
// table is empty, so a fresh deployment has a way in. No-op otherwise.
func EnsureBootstrapAdmin(ctx context.Context, db *sql.DB, username, passHash string) error {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err := db.ExecContext(ctx, `INSERT INTO users (id, username, password_hash, role)
		VALUES ($1,$2,$3,'admin')`, username, username, passHash)
	return err
}
