package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:classpoint.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/classpoint?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'student'
);

CREATE TABLE IF NOT EXISTS courses (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  created_by TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS course_members (
  course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  role TEXT NOT NULL,               -- student | educator
  PRIMARY KEY (course_id, user_id)
);

CREATE TABLE IF NOT EXISTS quizzes (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  release_at INTEGER NOT NULL,      -- unix millis
  due_at INTEGER NOT NULL,
  duration_mins INTEGER NOT NULL DEFAULT 0,
  weighting INTEGER NOT NULL DEFAULT 0,
  marks_released INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS quiz_questions (
  quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  question_number INTEGER NOT NULL, -- zero-based, dense
  kind TEXT NOT NULL,               -- short_answer | multiple_choice
  text TEXT NOT NULL,
  max_mark REAL NOT NULL DEFAULT 0,
  PRIMARY KEY (quiz_id, question_number)
);

CREATE TABLE IF NOT EXISTS quiz_options (
  quiz_id TEXT NOT NULL,
  question_number INTEGER NOT NULL,
  option_number INTEGER NOT NULL,   -- zero-based, dense per question
  text TEXT NOT NULL,
  correct INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (quiz_id, question_number, option_number),
  FOREIGN KEY (quiz_id, question_number) REFERENCES quiz_questions(quiz_id, question_number) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS quiz_submissions (
  quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  started_at INTEGER NOT NULL,      -- set once, immutable
  marked_by TEXT,
  PRIMARY KEY (quiz_id, user_id)
);

CREATE TABLE IF NOT EXISTS quiz_responses (
  quiz_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  question_number INTEGER NOT NULL,
  answer_text TEXT,
  option_number INTEGER,
  mark REAL NOT NULL DEFAULT 0,
  PRIMARY KEY (quiz_id, user_id, question_number),
  FOREIGN KEY (quiz_id, user_id) REFERENCES quiz_submissions(quiz_id, user_id) ON DELETE CASCADE
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'student'
);

CREATE TABLE IF NOT EXISTS courses (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  created_by TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS course_members (
  course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  role TEXT NOT NULL,
  PRIMARY KEY (course_id, user_id)
);

CREATE TABLE IF NOT EXISTS quizzes (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  release_at BIGINT NOT NULL,
  due_at BIGINT NOT NULL,
  duration_mins INTEGER NOT NULL DEFAULT 0,
  weighting INTEGER NOT NULL DEFAULT 0,
  marks_released BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS quiz_questions (
  quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  question_number INTEGER NOT NULL,
  kind TEXT NOT NULL,
  text TEXT NOT NULL,
  max_mark DOUBLE PRECISION NOT NULL DEFAULT 0,
  PRIMARY KEY (quiz_id, question_number)
);

CREATE TABLE IF NOT EXISTS quiz_options (
  quiz_id TEXT NOT NULL,
  question_number INTEGER NOT NULL,
  option_number INTEGER NOT NULL,
  text TEXT NOT NULL,
  correct BOOLEAN NOT NULL DEFAULT FALSE,
  PRIMARY KEY (quiz_id, question_number, option_number),
  FOREIGN KEY (quiz_id, question_number) REFERENCES quiz_questions(quiz_id, question_number) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS quiz_submissions (
  quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  started_at BIGINT NOT NULL,
  marked_by TEXT,
  PRIMARY KEY (quiz_id, user_id)
);

CREATE TABLE IF NOT EXISTS quiz_responses (
  quiz_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  question_number INTEGER NOT NULL,
  answer_text TEXT,
  option_number INTEGER,
  mark DOUBLE PRECISION NOT NULL DEFAULT 0,
  PRIMARY KEY (quiz_id, user_id, question_number),
  FOREIGN KEY (quiz_id, user_id) REFERENCES quiz_submissions(quiz_id, user_id) ON DELETE CASCADE
);
`
