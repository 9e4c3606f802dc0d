package quiz

// AutoMark scores a multiple-choice response at submission time: the full
// maximum mark when the chosen option is flagged correct, zero otherwise.
// Short-answer questions always score zero here; only a marker changes them.
func AutoMark(q Question, optionNumber *int) float64 {
	if q.Kind != MultipleChoice || optionNumber == nil {
		return 0
	}
	for _, opt := range q.Options {
		if opt.OptionNumber == *optionNumber && opt.Correct {
			return q.MaxMark
		}
	}
	return 0
}

// GradeAnswers turns a submitted answer set into the Response rows to store.
// The semantics are full replace: the result covers only the supplied answers,
// and the store resets every other response to unanswered. Entries that name an
// unknown question, an unknown option, or carry the wrong answer field for the
// question's kind are dropped rather than failing the whole call.
func GradeAnswers(quizID, userID string, questions []Question, answers []Answer) []Response {
	byNumber := make(map[int]Question, len(questions))
	for _, q := range questions {
		byNumber[q.QuestionNumber] = q
	}

	out := make([]Response, 0, len(answers))
	for _, a := range answers {
		q, ok := byNumber[a.QuestionNumber]
		if !ok {
			continue
		}
		r := Response{
			QuizID:         quizID,
			UserID:         userID,
			QuestionNumber: a.QuestionNumber,
		}
		switch q.Kind {
		case ShortAnswer:
			if a.AnswerText == nil {
				continue
			}
			r.AnswerText = a.AnswerText
		case MultipleChoice:
			if a.OptionNumber == nil || !hasOption(q, *a.OptionNumber) {
				continue
			}
			r.OptionNumber = a.OptionNumber
			r.Mark = AutoMark(q, a.OptionNumber)
		default:
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterMarkEntries keeps only the manual-mark entries the grading rules
// accept: an existing short-answer question and a non-negative mark. Marks are
// deliberately not clamped to the question maximum.
func FilterMarkEntries(questions []Question, entries []MarkEntry) map[int]float64 {
	byNumber := make(map[int]Question, len(questions))
	for _, q := range questions {
		byNumber[q.QuestionNumber] = q
	}
	out := make(map[int]float64, len(entries))
	for _, e := range entries {
		q, ok := byNumber[e.QuestionNumber]
		if !ok || q.Kind != ShortAnswer || e.Mark < 0 {
			continue
		}
		out[e.QuestionNumber] = e.Mark
	}
	return out
}

// TotalMark sums response marks. Unmarked short answers contribute zero, so the
// total is meaningful before every question has been marked.
func TotalMark(responses []Response) float64 {
	var total float64
	for _, r := range responses {
		total += r.Mark
	}
	return total
}

func hasOption(q Question, optionNumber int) bool {
	for _, opt := range q.Options {
		if opt.OptionNumber == optionNumber {
			return true
		}
	}
	return false
}
