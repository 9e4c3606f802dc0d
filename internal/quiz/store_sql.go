package quiz

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// SQLStore persists the catalog and submissions in a relational store. The SQL
// uses $1-style placeholders, which both the pgx and modernc sqlite drivers
// accept. Every mutating method runs in a single transaction.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) CreateQuiz(ctx context.Context, q Quiz, questions []Question) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO quizzes
			(id, course_id, name, description, release_at, due_at, duration_mins, weighting, marks_released)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			q.ID, q.CourseID, q.Name, q.Description, q.ReleaseAt, q.DueAt, q.DurationMins, q.Weighting, q.MarksReleased)
		if err != nil {
			if isUniqueViolation(err) {
				return conflictf("quiz %s already exists", q.ID)
			}
			return err
		}
		return insertQuestions(ctx, tx, q.ID, questions)
	})
}

func (s *SQLStore) GetQuiz(ctx context.Context, quizID string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, course_id, name, description, release_at, due_at,
		duration_mins, weighting, marks_released FROM quizzes WHERE id=$1`, quizID)
	var q Quiz
	err := row.Scan(&q.ID, &q.CourseID, &q.Name, &q.Description, &q.ReleaseAt, &q.DueAt,
		&q.DurationMins, &q.Weighting, &q.MarksReleased)
	if errors.Is(err, sql.ErrNoRows) {
		return Quiz{}, notFoundf("quiz %s", quizID)
	}
	if err != nil {
		return Quiz{}, err
	}
	return q, nil
}

func (s *SQLStore) GetQuestions(ctx context.Context, quizID string) ([]Question, error) {
	if _, err := s.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT question_number, kind, text, max_mark
		FROM quiz_questions WHERE quiz_id=$1 ORDER BY question_number`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []Question
	for rows.Next() {
		q := Question{QuizID: quizID}
		if err := rows.Scan(&q.QuestionNumber, &q.Kind, &q.Text, &q.MaxMark); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	optRows, err := s.db.QueryContext(ctx, `SELECT question_number, option_number, text, correct
		FROM quiz_options WHERE quiz_id=$1 ORDER BY question_number, option_number`, quizID)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()
	byNumber := make(map[int]int, len(questions))
	for i, q := range questions {
		byNumber[q.QuestionNumber] = i
	}
	for optRows.Next() {
		var qn int
		var opt Option
		if err := optRows.Scan(&qn, &opt.OptionNumber, &opt.Text, &opt.Correct); err != nil {
			return nil, err
		}
		if i, ok := byNumber[qn]; ok {
			questions[i].Options = append(questions[i].Options, opt)
		}
	}
	return questions, optRows.Err()
}

func (s *SQLStore) ListQuizzes(ctx context.Context, courseID string) ([]Quiz, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, course_id, name, description, release_at, due_at,
		duration_mins, weighting, marks_released FROM quizzes WHERE course_id=$1 ORDER BY due_at, id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Quiz{}
	for rows.Next() {
		var q Quiz
		if err := rows.Scan(&q.ID, &q.CourseID, &q.Name, &q.Description, &q.ReleaseAt, &q.DueAt,
			&q.DurationMins, &q.Weighting, &q.MarksReleased); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) ReplaceQuiz(ctx context.Context, q Quiz, questions []Question) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE quizzes SET name=$1, description=$2, release_at=$3,
			due_at=$4, duration_mins=$5, weighting=$6, marks_released=$7 WHERE id=$8`,
			q.Name, q.Description, q.ReleaseAt, q.DueAt, q.DurationMins, q.Weighting, q.MarksReleased, q.ID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return notFoundf("quiz %s", q.ID)
		}
		if err := deleteQuizChildren(ctx, tx, q.ID); err != nil {
			return err
		}
		return insertQuestions(ctx, tx, q.ID, questions)
	})
}

func (s *SQLStore) DeleteQuiz(ctx context.Context, quizID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := deleteQuizChildren(ctx, tx, quizID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM quizzes WHERE id=$1`, quizID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return notFoundf("quiz %s", quizID)
		}
		return nil
	})
}

func (s *SQLStore) SetMarksReleased(ctx context.Context, quizID string, released bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE quizzes SET marks_released=$1 WHERE id=$2`, released, quizID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFoundf("quiz %s", quizID)
	}
	return nil
}

func (s *SQLStore) CountSubmissions(ctx context.Context, quizID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quiz_submissions WHERE quiz_id=$1`, quizID).Scan(&n)
	return n, err
}

func (s *SQLStore) CreateSubmission(ctx context.Context, sub Submission, questionNumbers []int) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM quiz_submissions WHERE quiz_id=$1 AND user_id=$2`,
			sub.QuizID, sub.UserID).Scan(&exists)
		if err == nil {
			return conflictf("quiz %s already started by %s", sub.QuizID, sub.UserID)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO quiz_submissions (quiz_id, user_id, started_at)
			VALUES ($1,$2,$3)`, sub.QuizID, sub.UserID, sub.StartedAt)
		if err != nil {
			// A concurrent starter may have won the race between the check and
			// the insert; report it the same way as the pre-check.
			if isUniqueViolation(err) {
				return conflictf("quiz %s already started by %s", sub.QuizID, sub.UserID)
			}
			return err
		}
		for _, qn := range questionNumbers {
			_, err = tx.ExecContext(ctx, `INSERT INTO quiz_responses
				(quiz_id, user_id, question_number, answer_text, option_number, mark)
				VALUES ($1,$2,$3,NULL,NULL,0)`, sub.QuizID, sub.UserID, qn)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLStore) GetSubmission(ctx context.Context, quizID, userID string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT quiz_id, user_id, started_at, marked_by
		FROM quiz_submissions WHERE quiz_id=$1 AND user_id=$2`, quizID, userID)
	var sub Submission
	var markedBy sql.NullString
	err := row.Scan(&sub.QuizID, &sub.UserID, &sub.StartedAt, &markedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, notFoundf("submission %s/%s", quizID, userID)
	}
	if err != nil {
		return Submission{}, err
	}
	sub.MarkedBy = markedBy.String
	return sub, nil
}

func (s *SQLStore) ReplaceResponses(ctx context.Context, quizID, userID string, responses []Response) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM quiz_submissions WHERE quiz_id=$1 AND user_id=$2`,
			quizID, userID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return notFoundf("submission %s/%s", quizID, userID)
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE quiz_responses
			SET answer_text=NULL, option_number=NULL, mark=0
			WHERE quiz_id=$1 AND user_id=$2`, quizID, userID); err != nil {
			return err
		}
		for _, r := range responses {
			_, err = tx.ExecContext(ctx, `UPDATE quiz_responses
				SET answer_text=$1, option_number=$2, mark=$3
				WHERE quiz_id=$4 AND user_id=$5 AND question_number=$6`,
				r.AnswerText, r.OptionNumber, r.Mark, quizID, userID, r.QuestionNumber)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLStore) GetResponses(ctx context.Context, quizID, userID string) ([]Response, error) {
	if _, err := s.GetSubmission(ctx, quizID, userID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT question_number, answer_text, option_number, mark
		FROM quiz_responses WHERE quiz_id=$1 AND user_id=$2 ORDER BY question_number`, quizID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Response{}
	for rows.Next() {
		r := Response{QuizID: quizID, UserID: userID}
		var text sql.NullString
		var opt sql.NullInt64
		if err := rows.Scan(&r.QuestionNumber, &text, &opt, &r.Mark); err != nil {
			return nil, err
		}
		if text.Valid {
			r.AnswerText = &text.String
		}
		if opt.Valid {
			n := int(opt.Int64)
			r.OptionNumber = &n
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) ApplyMarks(ctx context.Context, quizID, userID string, marks map[int]float64, markedBy string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE quiz_submissions SET marked_by=$1
			WHERE quiz_id=$2 AND user_id=$3`, markedBy, quizID, userID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return notFoundf("submission %s/%s", quizID, userID)
		}
		for qn, mark := range marks {
			_, err = tx.ExecContext(ctx, `UPDATE quiz_responses SET mark=$1
				WHERE quiz_id=$2 AND user_id=$3 AND question_number=$4`, mark, quizID, userID, qn)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertQuestions(ctx context.Context, tx *sql.Tx, quizID string, questions []Question) error {
	for _, q := range questions {
		_, err := tx.ExecContext(ctx, `INSERT INTO quiz_questions (quiz_id, question_number, kind, text, max_mark)
			VALUES ($1,$2,$3,$4,$5)`, quizID, q.QuestionNumber, string(q.Kind), q.Text, q.MaxMark)
		if err != nil {
			return err
		}
		for _, opt := range q.Options {
			_, err := tx.ExecContext(ctx, `INSERT INTO quiz_options (quiz_id, question_number, option_number, text, correct)
				VALUES ($1,$2,$3,$4,$5)`, quizID, q.QuestionNumber, opt.OptionNumber, opt.Text, opt.Correct)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func deleteQuizChildren(ctx context.Context, tx *sql.Tx, quizID string) error {
	// Children first; works whether or not the driver enforces FK cascades.
	for _, stmt := range []string{
		`DELETE FROM quiz_responses WHERE quiz_id=$1`,
		`DELETE FROM quiz_submissions WHERE quiz_id=$1`,
		`DELETE FROM quiz_options WHERE quiz_id=$1`,
		`DELETE FROM quiz_questions WHERE quiz_id=$1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, quizID); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || // sqlite
		strings.Contains(msg, "sqlstate 23505") || // postgres
		strings.Contains(msg, "duplicate key")
}
