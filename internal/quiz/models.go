package quiz

// QuestionKind discriminates how a question is answered and graded.
type QuestionKind string

const (
	ShortAnswer    QuestionKind = "short_answer"
	MultipleChoice QuestionKind = "multiple_choice"
)

// Quiz holds the scalar definition of one quiz. Instants are Unix milliseconds.
type Quiz struct {
	ID            string `json:"id"`
	CourseID      string `json:"course_id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	ReleaseAt     int64  `json:"release_at"`
	DueAt         int64  `json:"due_at"`
	DurationMins  int    `json:"duration_mins"` // 0 = no per-attempt timer, due date only
	Weighting     int    `json:"weighting"`     // 0..100
	MarksReleased bool   `json:"marks_released"`
}

// Question belongs to exactly one quiz and is identified by
// (quizID, questionNumber). Question numbers are zero-based and dense; they are
// assigned from array position at create/replace time, not stored surrogate keys.
type Question struct {
	QuizID         string       `json:"quiz_id"`
	QuestionNumber int          `json:"question_number"`
	Kind           QuestionKind `json:"kind"`
	Text           string       `json:"text"`
	MaxMark        float64      `json:"max_mark"`
	Options        []Option     `json:"options,omitempty"` // multiple choice only
}

// Option is one multiple-choice option. More than one option per question may be
// correct; a response naming any correct option earns the full mark.
type Option struct {
	OptionNumber int    `json:"option_number"`
	Text         string `json:"text"`
	Correct      bool   `json:"correct"`
}

// Submission records that a user started a quiz. Its existence is the sole
// "has started" signal; StartedAt is set once and never changes.
type Submission struct {
	QuizID    string `json:"quiz_id"`
	UserID    string `json:"user_id"`
	StartedAt int64  `json:"started_at"`
	MarkedBy  string `json:"marked_by,omitempty"` // last educator to apply manual marks
}

// Response is the stored answer state for one question of one user's attempt.
// A row exists for every question of the quiz from the moment the user starts;
// unanswered questions keep nil answer fields and mark 0.
type Response struct {
	QuizID         string   `json:"quiz_id"`
	UserID         string   `json:"user_id"`
	QuestionNumber int      `json:"question_number"`
	AnswerText     *string  `json:"answer_text,omitempty"`   // short answer
	OptionNumber   *int     `json:"option_number,omitempty"` // multiple choice
	Mark           float64  `json:"mark"`
}

// Answer is one entry of a submitted answer set. Exactly one of AnswerText /
// OptionNumber is expected, matching the target question's kind.
type Answer struct {
	QuestionNumber int     `json:"question_number"`
	AnswerText     *string `json:"answer_text,omitempty"`
	OptionNumber   *int    `json:"option_number,omitempty"`
}

// MarkEntry is one manual mark applied by an educator.
type MarkEntry struct {
	QuestionNumber int     `json:"question_number"`
	Mark           float64 `json:"mark"`
}
