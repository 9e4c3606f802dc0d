package quiz

import "testing"

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func mcQuestion() Question {
	return Question{
		QuizID:         "q1",
		QuestionNumber: 0,
		Kind:           MultipleChoice,
		Text:           "2+2?",
		MaxMark:        1,
		Options: []Option{
			{OptionNumber: 0, Text: "3"},
			{OptionNumber: 1, Text: "4", Correct: true},
			{OptionNumber: 2, Text: "5"},
		},
	}
}

func TestAutoMark(t *testing.T) {
	q := mcQuestion()
	if got := AutoMark(q, intPtr(1)); got != 1 {
		t.Fatalf("correct option scored %v, want 1", got)
	}
	if got := AutoMark(q, intPtr(0)); got != 0 {
		t.Fatalf("wrong option scored %v, want 0", got)
	}
	if got := AutoMark(q, nil); got != 0 {
		t.Fatalf("missing option scored %v, want 0", got)
	}
}

func TestAutoMarkAnyCorrectOptionScoresFull(t *testing.T) {
	q := mcQuestion()
	q.Options[2].Correct = true // two correct options
	for _, n := range []int{1, 2} {
		if got := AutoMark(q, intPtr(n)); got != 1 {
			t.Fatalf("option %d scored %v, want 1", n, got)
		}
	}
}

func TestGradeAnswersSkipsMalformedEntries(t *testing.T) {
	questions := []Question{
		mcQuestion(),
		{QuizID: "q1", QuestionNumber: 1, Kind: ShortAnswer, Text: "why?", MaxMark: 5},
	}
	answers := []Answer{
		{QuestionNumber: 0, OptionNumber: intPtr(1)},           // valid
		{QuestionNumber: 0, AnswerText: strPtr("stray")},       // text answer to a MC question
		{QuestionNumber: 1, AnswerText: strPtr("because")},     // valid
		{QuestionNumber: 7, AnswerText: strPtr("no question")}, // unknown question
		{QuestionNumber: 0, OptionNumber: intPtr(9)},           // unknown option
	}
	got := GradeAnswers("q1", "u1", questions, answers)

	if len(got) != 2 {
		t.Fatalf("kept %d responses, want 2 (one per valid entry): %+v", len(got), got)
	}
	for _, r := range got {
		switch r.QuestionNumber {
		case 0:
			if r.OptionNumber == nil || *r.OptionNumber != 1 || r.Mark != 1 {
				t.Fatalf("mc response not auto-marked: %+v", r)
			}
		case 1:
			if r.AnswerText == nil || *r.AnswerText != "because" || r.Mark != 0 {
				t.Fatalf("short answer must store text with mark 0: %+v", r)
			}
		}
	}
}

func TestFilterMarkEntries(t *testing.T) {
	questions := []Question{
		mcQuestion(),
		{QuizID: "q1", QuestionNumber: 1, Kind: ShortAnswer, MaxMark: 5},
		{QuizID: "q1", QuestionNumber: 2, Kind: ShortAnswer, MaxMark: 3},
	}
	entries := []MarkEntry{
		{QuestionNumber: 0, Mark: 1},  // multiple choice, skipped
		{QuestionNumber: 1, Mark: 4},  // accepted
		{QuestionNumber: 2, Mark: -1}, // negative, skipped
		{QuestionNumber: 9, Mark: 2},  // unknown question, skipped
	}
	got := FilterMarkEntries(questions, entries)
	if len(got) != 1 || got[1] != 4 {
		t.Fatalf("FilterMarkEntries = %v, want map[1:4]", got)
	}
}

func TestTotalMarkCountsUnmarkedAsZero(t *testing.T) {
	responses := []Response{
		{QuestionNumber: 0, Mark: 1},
		{QuestionNumber: 1, Mark: 0}, // unmarked short answer
		{QuestionNumber: 2, Mark: 2.5},
	}
	if got := TotalMark(responses); got != 3.5 {
		t.Fatalf("TotalMark = %v, want 3.5", got)
	}
}
