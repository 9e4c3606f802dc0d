package quiz

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/classpoint/lms-backend/internal/db"
)

var memDBSeq int

// openTestStore opens a fresh in-memory sqlite DB with the real schema.
func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	memDBSeq++
	dsn := fmt.Sprintf("file:quizstore%d?mode=memory&cache=shared", memDBSeq)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	dbh, err := db.Open(ctx, db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	if _, err := dbh.ExecContext(ctx, `INSERT INTO courses (id, name, created_by) VALUES ('c1','Algorithms','ted')`); err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return NewSQLStore(dbh)
}

func sqlTestQuiz() (Quiz, []Question) {
	q := Quiz{
		ID:           "quiz-1",
		CourseID:     "c1",
		Name:         "week 1 quiz",
		ReleaseAt:    msAt(base),
		DueAt:        msAt(base.Add(48 * time.Hour)),
		DurationMins: 60,
		Weighting:    20,
	}
	questions := []Question{
		{QuizID: q.ID, QuestionNumber: 0, Kind: MultipleChoice, Text: "2+2?", MaxMark: 1, Options: []Option{
			{OptionNumber: 0, Text: "3"},
			{OptionNumber: 1, Text: "4", Correct: true},
		}},
		{QuizID: q.ID, QuestionNumber: 1, Kind: ShortAnswer, Text: "why?", MaxMark: 5},
	}
	return q, questions
}

func TestSQLStoreCatalog(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	q, questions := sqlTestQuiz()

	if err := store.CreateQuiz(ctx, q, questions); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.CreateQuiz(ctx, q, questions); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate create: %v", err)
	}

	got, err := store.GetQuiz(ctx, q.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != q {
		t.Fatalf("GetQuiz = %+v, want %+v", got, q)
	}

	qs, err := store.GetQuestions(ctx, q.ID)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(qs) != 2 || len(qs[0].Options) != 2 || !qs[0].Options[1].Correct {
		t.Fatalf("questions round-trip broken: %+v", qs)
	}

	list, err := store.ListQuizzes(ctx, "c1")
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %v, %v", list, err)
	}

	if err := store.SetMarksReleased(ctx, q.ID, true); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetQuiz(ctx, q.ID)
	if !got.MarksReleased {
		t.Fatal("marks_released not persisted")
	}

	if _, err := store.GetQuiz(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing quiz: %v", err)
	}
}

func TestSQLStoreSubmissionFlow(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	q, questions := sqlTestQuiz()
	if err := store.CreateQuiz(ctx, q, questions); err != nil {
		t.Fatal(err)
	}

	sub := Submission{QuizID: q.ID, UserID: "sam", StartedAt: msAt(base)}
	if err := store.CreateSubmission(ctx, sub, []int{0, 1}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := store.CreateSubmission(ctx, sub, []int{0, 1}); !errors.Is(err, ErrConflict) {
		t.Fatalf("second start: %v", err)
	}

	got, err := store.GetSubmission(ctx, q.ID, "sam")
	if err != nil || got.StartedAt != sub.StartedAt || got.MarkedBy != "" {
		t.Fatalf("GetSubmission = %+v, %v", got, err)
	}

	// Blank rows exist for both questions.
	responses, err := store.GetResponses(ctx, q.ID, "sam")
	if err != nil || len(responses) != 2 {
		t.Fatalf("blank responses = %+v, %v", responses, err)
	}

	// Apply one answer; the other row stays blank.
	if err := store.ReplaceResponses(ctx, q.ID, "sam", []Response{
		{QuizID: q.ID, UserID: "sam", QuestionNumber: 0, OptionNumber: intPtr(1), Mark: 1},
	}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	responses, _ = store.GetResponses(ctx, q.ID, "sam")
	if responses[0].OptionNumber == nil || *responses[0].OptionNumber != 1 || responses[0].Mark != 1 {
		t.Fatalf("answer not stored: %+v", responses[0])
	}
	if responses[1].AnswerText != nil || responses[1].Mark != 0 {
		t.Fatalf("untouched row not blank: %+v", responses[1])
	}

	// A later replace resets earlier answers.
	if err := store.ReplaceResponses(ctx, q.ID, "sam", []Response{
		{QuizID: q.ID, UserID: "sam", QuestionNumber: 1, AnswerText: strPtr("entropy")},
	}); err != nil {
		t.Fatal(err)
	}
	responses, _ = store.GetResponses(ctx, q.ID, "sam")
	if responses[0].OptionNumber != nil || responses[0].Mark != 0 {
		t.Fatalf("full replace left stale answer: %+v", responses[0])
	}
	if responses[1].AnswerText == nil || *responses[1].AnswerText != "entropy" {
		t.Fatalf("short answer lost: %+v", responses[1])
	}

	if err := store.ApplyMarks(ctx, q.ID, "sam", map[int]float64{1: 4}, "ted"); err != nil {
		t.Fatalf("marks: %v", err)
	}
	responses, _ = store.GetResponses(ctx, q.ID, "sam")
	if responses[1].Mark != 4 {
		t.Fatalf("manual mark not stored: %+v", responses[1])
	}
	got, _ = store.GetSubmission(ctx, q.ID, "sam")
	if got.MarkedBy != "ted" {
		t.Fatalf("markedBy = %q, want ted", got.MarkedBy)
	}

	if n, _ := store.CountSubmissions(ctx, q.ID); n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestSQLStoreReplaceQuizDestroysAttempts(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	q, questions := sqlTestQuiz()
	if err := store.CreateQuiz(ctx, q, questions); err != nil {
		t.Fatal(err)
	}
	sub := Submission{QuizID: q.ID, UserID: "sam", StartedAt: msAt(base)}
	if err := store.CreateSubmission(ctx, sub, []int{0, 1}); err != nil {
		t.Fatal(err)
	}

	next := q
	next.Name = "week 1 quiz (fixed)"
	nextQuestions := []Question{
		{QuizID: q.ID, QuestionNumber: 0, Kind: ShortAnswer, Text: "define entropy", MaxMark: 10},
	}
	if err := store.ReplaceQuiz(ctx, next, nextQuestions); err != nil {
		t.Fatalf("replace quiz: %v", err)
	}

	if n, _ := store.CountSubmissions(ctx, q.ID); n != 0 {
		t.Fatalf("submissions after replace = %d, want 0", n)
	}
	if _, err := store.GetSubmission(ctx, q.ID, "sam"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("submission survived replace: %v", err)
	}
	qs, err := store.GetQuestions(ctx, q.ID)
	if err != nil || len(qs) != 1 || qs[0].Kind != ShortAnswer {
		t.Fatalf("question set not replaced: %+v, %v", qs, err)
	}

	if err := store.DeleteQuiz(ctx, q.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetQuiz(ctx, q.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("quiz survived delete: %v", err)
	}
}
