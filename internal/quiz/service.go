package quiz

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/classpoint/lms-backend/internal/clock"
	"github.com/classpoint/lms-backend/internal/roster"
)

// Service is the operation surface the handler layer calls. Every method
// evaluates membership and timing predicates before touching the store; a
// rejected call never mutates anything.
type Service struct {
	store  Store
	roster roster.Roster
	clock  clock.Clock
	newID  func() string
}

func NewService(store Store, r roster.Roster, clk clock.Clock) *Service {
	return &Service{store: store, roster: r, clock: clk, newID: uuid.NewString}
}

// QuestionView is a question as one viewer is allowed to see it. Correct is nil
// while correctness is withheld from the viewer.
type QuestionView struct {
	QuestionNumber int          `json:"question_number"`
	Kind           QuestionKind `json:"kind"`
	Text           string       `json:"text"`
	MaxMark        float64      `json:"max_mark"`
	Options        []OptionView `json:"options,omitempty"`
}

type OptionView struct {
	OptionNumber int    `json:"option_number"`
	Text         string `json:"text"`
	Correct      *bool  `json:"correct,omitempty"`
}

// QuizDetail is the visibility-filtered quiz a viewer fetches. Questions is nil
// for a student who has not started; QuestionCount is always present.
type QuizDetail struct {
	Quiz
	QuestionCount int            `json:"question_count"`
	Started       bool           `json:"started"`
	StartedAt     int64          `json:"started_at,omitempty"`
	Questions     []QuestionView `json:"questions,omitempty"`
}

// AnswerView is one stored response as shown to a viewer. Mark is nil while
// marks are withheld.
type AnswerView struct {
	QuestionNumber int      `json:"question_number"`
	AnswerText     *string  `json:"answer_text,omitempty"`
	OptionNumber   *int     `json:"option_number,omitempty"`
	Mark           *float64 `json:"mark,omitempty"`
}

type SubmissionView struct {
	QuizID    string       `json:"quiz_id"`
	UserID    string       `json:"user_id"`
	StartedAt int64        `json:"started_at"`
	MarkedBy  string       `json:"marked_by,omitempty"`
	Answers   []AnswerView `json:"answers"`
	Total     *float64     `json:"total,omitempty"`
}

// Catalog lists the quizzes of a course for any member of the course.
func (s *Service) Catalog(ctx context.Context, viewerID, courseID string) ([]Quiz, error) {
	member, err := s.isMember(ctx, viewerID, courseID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, forbiddenf("user %s is not a member of course %s", viewerID, courseID)
	}
	return s.store.ListQuizzes(ctx, courseID)
}

// GetQuizDetail returns the quiz plus its questions filtered for the viewer.
// An educator of the course sees everything including option correctness. A
// student sees no question content until they hold a submission, and no
// correctness flags until the answer key is released to them.
func (s *Service) GetQuizDetail(ctx context.Context, viewerID, quizID string) (QuizDetail, error) {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return QuizDetail{}, err
	}
	educator, err := s.roster.IsEducator(ctx, viewerID, q.CourseID)
	if err != nil {
		return QuizDetail{}, err
	}
	if !educator {
		enrolled, err := s.roster.IsEnrolled(ctx, viewerID, q.CourseID)
		if err != nil {
			return QuizDetail{}, err
		}
		if !enrolled {
			return QuizDetail{}, forbiddenf("user %s is not a member of course %s", viewerID, q.CourseID)
		}
	}

	questions, err := s.store.GetQuestions(ctx, quizID)
	if err != nil {
		return QuizDetail{}, err
	}
	detail := QuizDetail{Quiz: q, QuestionCount: len(questions)}

	sub, err := s.submissionOrNil(ctx, quizID, viewerID)
	if err != nil {
		return QuizDetail{}, err
	}
	if sub != nil {
		detail.Started = true
		detail.StartedAt = sub.StartedAt
	}

	switch {
	case educator:
		detail.Questions = viewQuestions(questions, true)
	case sub == nil:
		// Question content withheld until the student starts.
	default:
		detail.Questions = viewQuestions(questions, CanAccessAnswerKey(s.clock.Now(), q, sub))
	}
	return detail, nil
}

// CreateQuiz adds a quiz to a course. Question and option numbers are assigned
// from array position. Release/due ordering is not validated; a quiz with
// release after due is simply never active.
func (s *Service) CreateQuiz(ctx context.Context, actorID, courseID string, in QuizInput) (Quiz, error) {
	if err := s.requireEducator(ctx, actorID, courseID); err != nil {
		return Quiz{}, err
	}
	q := Quiz{
		ID:           s.newID(),
		CourseID:     courseID,
		Name:         in.Name,
		Description:  in.Description,
		ReleaseAt:    in.ReleaseAt,
		DueAt:        in.DueAt,
		DurationMins: in.DurationMins,
		Weighting:    in.Weighting,
	}
	questions, err := buildQuestions(q.ID, in)
	if err != nil {
		return Quiz{}, err
	}
	if err := s.store.CreateQuiz(ctx, q, questions); err != nil {
		return Quiz{}, err
	}
	return q, nil
}

// UpdateQuiz replaces the quiz definition wholesale. Every existing submission
// and response of the quiz is destroyed; callers must acknowledge that by
// passing discardAttempts, or the call fails with Conflict while any attempt
// exists.
func (s *Service) UpdateQuiz(ctx context.Context, actorID, quizID string, in QuizInput, discardAttempts bool) error {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if err := s.requireEducator(ctx, actorID, q.CourseID); err != nil {
		return err
	}
	if !discardAttempts {
		n, err := s.store.CountSubmissions(ctx, quizID)
		if err != nil {
			return err
		}
		if n > 0 {
			return conflictf("quiz %s has %d submissions that would be discarded; pass discard_attempts to confirm", quizID, n)
		}
	}
	next := Quiz{
		ID:            q.ID,
		CourseID:      q.CourseID,
		Name:          in.Name,
		Description:   in.Description,
		ReleaseAt:     in.ReleaseAt,
		DueAt:         in.DueAt,
		DurationMins:  in.DurationMins,
		Weighting:     in.Weighting,
		MarksReleased: q.MarksReleased,
	}
	questions, err := buildQuestions(q.ID, in)
	if err != nil {
		return err
	}
	return s.store.ReplaceQuiz(ctx, next, questions)
}

func (s *Service) DeleteQuiz(ctx context.Context, actorID, quizID string) error {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if err := s.requireEducator(ctx, actorID, q.CourseID); err != nil {
		return err
	}
	return s.store.DeleteQuiz(ctx, quizID)
}

// SetMarksReleased toggles the quiz-level marks flag. Turning it off hides
// marks and answer keys again immediately.
func (s *Service) SetMarksReleased(ctx context.Context, actorID, quizID string, released bool) error {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if err := s.requireEducator(ctx, actorID, q.CourseID); err != nil {
		return err
	}
	return s.store.SetMarksReleased(ctx, quizID, released)
}

// StartSubmission begins the user's one attempt and returns its start instant.
// One blank response per question is created with it.
func (s *Service) StartSubmission(ctx context.Context, userID, quizID string) (int64, error) {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return 0, err
	}
	enrolled, err := s.roster.IsEnrolled(ctx, userID, q.CourseID)
	if err != nil {
		return 0, err
	}
	if !enrolled {
		return 0, forbiddenf("user %s is not enrolled in course %s", userID, q.CourseID)
	}
	now := s.clock.Now()
	if !IsQuizActive(now, q) {
		return 0, conflictf("quiz %s is not open", quizID)
	}
	if _, err := s.store.GetSubmission(ctx, quizID, userID); err == nil {
		return 0, conflictf("quiz %s already started by %s", quizID, userID)
	} else if !IsNotFound(err) {
		return 0, err
	}
	questions, err := s.store.GetQuestions(ctx, quizID)
	if err != nil {
		return 0, err
	}
	numbers := make([]int, 0, len(questions))
	for _, qq := range questions {
		numbers = append(numbers, qq.QuestionNumber)
	}
	sub := Submission{QuizID: quizID, UserID: userID, StartedAt: now.UnixMilli()}
	if err := s.store.CreateSubmission(ctx, sub, numbers); err != nil {
		return 0, err
	}
	return sub.StartedAt, nil
}

// SubmitAnswers replaces the user's whole answer set. Questions absent from
// answers revert to unanswered; multiple-choice answers are auto-marked here.
// After the attempt finishes the call fails and prior answers stand.
func (s *Service) SubmitAnswers(ctx context.Context, userID, quizID string, answers []Answer) error {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	sub, err := s.store.GetSubmission(ctx, quizID, userID)
	if err != nil {
		return err
	}
	if !CanSubmitAnswers(s.clock.Now(), q, &sub) {
		return conflictf("quiz %s has finished for %s", quizID, userID)
	}
	questions, err := s.store.GetQuestions(ctx, quizID)
	if err != nil {
		return err
	}
	responses := GradeAnswers(quizID, userID, questions, answers)
	return s.store.ReplaceResponses(ctx, quizID, userID, responses)
}

// GetSubmissionAnswers returns a submission's answers. The owner may read
// their own at any time, with marks attached only once accessible; an educator
// of the course reads anyone's, marks always attached.
func (s *Service) GetSubmissionAnswers(ctx context.Context, viewerID, quizID, userID string) (SubmissionView, error) {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return SubmissionView{}, err
	}
	educator, err := s.roster.IsEducator(ctx, viewerID, q.CourseID)
	if err != nil {
		return SubmissionView{}, err
	}
	if viewerID != userID && !educator {
		return SubmissionView{}, forbiddenf("user %s may not view submission of %s", viewerID, userID)
	}
	sub, err := s.store.GetSubmission(ctx, quizID, userID)
	if err != nil {
		return SubmissionView{}, err
	}
	responses, err := s.store.GetResponses(ctx, quizID, userID)
	if err != nil {
		return SubmissionView{}, err
	}
	withMarks := educator || CanAccessMarks(s.clock.Now(), q, &sub)
	return viewSubmission(sub, responses, withMarks), nil
}

// GetMarks returns per-question marks and the running total. An educator of
// the course reads anyone's at any time; the owner only once marks are
// released and their attempt has finished.
func (s *Service) GetMarks(ctx context.Context, viewerID, quizID, userID string) (SubmissionView, error) {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return SubmissionView{}, err
	}
	educator, err := s.roster.IsEducator(ctx, viewerID, q.CourseID)
	if err != nil {
		return SubmissionView{}, err
	}
	sub, err := s.store.GetSubmission(ctx, quizID, userID)
	if err != nil {
		return SubmissionView{}, err
	}
	if !educator {
		if viewerID != userID {
			return SubmissionView{}, forbiddenf("user %s may not view marks of %s", viewerID, userID)
		}
		if !CanAccessMarks(s.clock.Now(), q, &sub) {
			return SubmissionView{}, forbiddenf("marks for quiz %s are not accessible to %s yet", quizID, userID)
		}
	}
	responses, err := s.store.GetResponses(ctx, quizID, userID)
	if err != nil {
		return SubmissionView{}, err
	}
	return viewSubmission(sub, responses, true), nil
}

// MarkSubmission applies an educator's manual marks to short-answer responses
// of a finished attempt. Entries for unknown or multiple-choice questions and
// negative marks are skipped; accepted entries stamp the marker on the
// submission, last marker wins.
func (s *Service) MarkSubmission(ctx context.Context, markerID, quizID, userID string, entries []MarkEntry) error {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if err := s.requireEducator(ctx, markerID, q.CourseID); err != nil {
		return err
	}
	sub, err := s.store.GetSubmission(ctx, quizID, userID)
	if err != nil {
		return err
	}
	if !HasQuizFinishedForUser(s.clock.Now(), q, &sub) {
		return conflictf("attempt of %s on quiz %s has not finished", userID, quizID)
	}
	questions, err := s.store.GetQuestions(ctx, quizID)
	if err != nil {
		return err
	}
	marks := FilterMarkEntries(questions, entries)
	if len(marks) == 0 {
		return nil
	}
	return s.store.ApplyMarks(ctx, quizID, userID, marks, markerID)
}

// IsNotFound reports whether err is the engine's NotFound class.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func (s *Service) requireEducator(ctx context.Context, userID, courseID string) error {
	educator, err := s.roster.IsEducator(ctx, userID, courseID)
	if err != nil {
		return err
	}
	if !educator {
		return forbiddenf("user %s is not an educator of course %s", userID, courseID)
	}
	return nil
}

func (s *Service) isMember(ctx context.Context, userID, courseID string) (bool, error) {
	educator, err := s.roster.IsEducator(ctx, userID, courseID)
	if err != nil {
		return false, err
	}
	if educator {
		return true, nil
	}
	return s.roster.IsEnrolled(ctx, userID, courseID)
}

func (s *Service) submissionOrNil(ctx context.Context, quizID, userID string) (*Submission, error) {
	sub, err := s.store.GetSubmission(ctx, quizID, userID)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func buildQuestions(quizID string, in QuizInput) ([]Question, error) {
	if in.Weighting < 0 || in.Weighting > 100 {
		return nil, invalidf("weighting %d is outside 0..100", in.Weighting)
	}
	if in.DurationMins < 0 {
		return nil, invalidf("duration %d is negative", in.DurationMins)
	}
	questions := make([]Question, 0, len(in.Questions))
	for i, qi := range in.Questions {
		if qi.Kind != ShortAnswer && qi.Kind != MultipleChoice {
			return nil, invalidf("question %d: unknown kind %q", i, qi.Kind)
		}
		if qi.MaxMark < 0 {
			return nil, invalidf("question %d: negative max mark", i)
		}
		q := Question{
			QuizID:         quizID,
			QuestionNumber: i,
			Kind:           qi.Kind,
			Text:           qi.Text,
			MaxMark:        qi.MaxMark,
		}
		if qi.Kind == MultipleChoice {
			for j, oi := range qi.Options {
				q.Options = append(q.Options, Option{OptionNumber: j, Text: oi.Text, Correct: oi.Correct})
			}
		} else if len(qi.Options) > 0 {
			return nil, invalidf("question %d: short answer cannot carry options", i)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func viewQuestions(questions []Question, withKey bool) []QuestionView {
	out := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		qv := QuestionView{
			QuestionNumber: q.QuestionNumber,
			Kind:           q.Kind,
			Text:           q.Text,
			MaxMark:        q.MaxMark,
		}
		for _, opt := range q.Options {
			ov := OptionView{OptionNumber: opt.OptionNumber, Text: opt.Text}
			if withKey {
				correct := opt.Correct
				ov.Correct = &correct
			}
			qv.Options = append(qv.Options, ov)
		}
		out = append(out, qv)
	}
	return out
}

func viewSubmission(sub Submission, responses []Response, withMarks bool) SubmissionView {
	view := SubmissionView{
		QuizID:    sub.QuizID,
		UserID:    sub.UserID,
		StartedAt: sub.StartedAt,
		Answers:   make([]AnswerView, 0, len(responses)),
	}
	if withMarks {
		view.MarkedBy = sub.MarkedBy
		total := TotalMark(responses)
		view.Total = &total
	}
	for _, r := range responses {
		av := AnswerView{
			QuestionNumber: r.QuestionNumber,
			AnswerText:     r.AnswerText,
			OptionNumber:   r.OptionNumber,
		}
		if withMarks {
			mark := r.Mark
			av.Mark = &mark
		}
		view.Answers = append(view.Answers, av)
	}
	return view
}
