package quiz

import "context"

// QuizInput is the caller-supplied definition for create and replace. Question
// and option numbers are derived from array position, zero-based; they are not
// accepted from the caller.
type QuizInput struct {
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	ReleaseAt    int64           `json:"release_at"`
	DueAt        int64           `json:"due_at"`
	DurationMins int             `json:"duration_mins"`
	Weighting    int             `json:"weighting"`
	Questions    []QuestionInput `json:"questions"`
}

type QuestionInput struct {
	Kind    QuestionKind  `json:"kind"`
	Text    string        `json:"text"`
	MaxMark float64       `json:"max_mark"`
	Options []OptionInput `json:"options,omitempty"`
}

type OptionInput struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Store is the persistence boundary for the quiz catalog and submissions.
// Implementations must make each mutating call atomic: no partial question
// sets, no half-replaced answer sets.
type Store interface {
	// Catalog.
	CreateQuiz(ctx context.Context, q Quiz, questions []Question) error
	GetQuiz(ctx context.Context, quizID string) (Quiz, error)
	GetQuestions(ctx context.Context, quizID string) ([]Question, error)
	ListQuizzes(ctx context.Context, courseID string) ([]Quiz, error)
	// ReplaceQuiz deletes every submission, response, question and option of
	// the quiz, updates its scalar fields, and inserts the new question set,
	// all in one transaction. Destroys all student attempts by design.
	ReplaceQuiz(ctx context.Context, q Quiz, questions []Question) error
	DeleteQuiz(ctx context.Context, quizID string) error
	SetMarksReleased(ctx context.Context, quizID string, released bool) error
	CountSubmissions(ctx context.Context, quizID string) (int, error)

	// Submissions. CreateSubmission inserts the submission row and one blank
	// response per question; it fails with ErrConflict when the user already
	// started, including when a concurrent racer wins the insert.
	CreateSubmission(ctx context.Context, sub Submission, questionNumbers []int) error
	GetSubmission(ctx context.Context, quizID, userID string) (Submission, error)
	// ReplaceResponses resets every response of the attempt to unanswered and
	// mark 0, then applies the supplied rows, atomically.
	ReplaceResponses(ctx context.Context, quizID, userID string, responses []Response) error
	GetResponses(ctx context.Context, quizID, userID string) ([]Response, error)
	// ApplyMarks writes the given per-question marks and stamps markedBy on
	// the submission. Last marker wins.
	ApplyMarks(ctx context.Context, quizID, userID string, marks map[int]float64, markedBy string) error
}
