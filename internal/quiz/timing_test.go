package quiz

import (
	"testing"
	"time"
)

var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func msAt(t time.Time) int64 { return t.UnixMilli() }

func timedQuiz(durationMins int) Quiz {
	return Quiz{
		ID:           "q1",
		CourseID:     "c1",
		ReleaseAt:    msAt(base),
		DueAt:        msAt(base.Add(48 * time.Hour)),
		DurationMins: durationMins,
	}
}

func TestIsQuizActiveBoundaries(t *testing.T) {
	q := timedQuiz(0)
	release := base
	due := base.Add(48 * time.Hour)

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"just before release", release.Add(-time.Millisecond), false},
		{"at release", release, true},
		{"mid window", release.Add(24 * time.Hour), true},
		{"at due", due, true},
		{"just after due", due.Add(time.Millisecond), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsQuizActive(tc.now, q); got != tc.want {
				t.Fatalf("IsQuizActive(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestIsQuizActiveReleaseAfterDue(t *testing.T) {
	q := Quiz{ReleaseAt: msAt(base.Add(time.Hour)), DueAt: msAt(base)}
	for _, now := range []time.Time{base.Add(-time.Hour), base, base.Add(30 * time.Minute), base.Add(2 * time.Hour)} {
		if IsQuizActive(now, q) {
			t.Fatalf("quiz with release after due must never be active, was at %v", now)
		}
	}
}

func TestHasQuizFinishedDueDateBoundary(t *testing.T) {
	q := timedQuiz(0)
	sub := &Submission{QuizID: "q1", UserID: "u1", StartedAt: msAt(base)}
	flip := base.Add(48 * time.Hour).Add(SubmissionBuffer)

	if HasQuizFinishedForUser(flip.Add(-time.Millisecond), q, sub) {
		t.Fatal("finished before due+buffer")
	}
	if !HasQuizFinishedForUser(flip, q, sub) {
		t.Fatal("not finished at due+buffer")
	}
}

func TestHasQuizFinishedPersonalTimerBoundary(t *testing.T) {
	q := timedQuiz(60)
	start := base.Add(time.Hour)
	sub := &Submission{QuizID: "q1", UserID: "u1", StartedAt: msAt(start)}
	flip := start.Add(60 * time.Minute).Add(SubmissionBuffer)

	if HasQuizFinishedForUser(flip.Add(-time.Millisecond), q, sub) {
		t.Fatal("finished before start+duration+buffer")
	}
	if !HasQuizFinishedForUser(flip, q, sub) {
		t.Fatal("not finished at start+duration+buffer")
	}
}

func TestHasQuizFinishedNoSubmission(t *testing.T) {
	q := timedQuiz(60)
	if HasQuizFinishedForUser(base.Add(100*24*time.Hour), q, nil) {
		t.Fatal("a quiz never started cannot be finished")
	}
}

func TestZeroDurationIgnoresPersonalTimer(t *testing.T) {
	q := timedQuiz(0)
	sub := &Submission{QuizID: "q1", UserID: "u1", StartedAt: msAt(base)}
	// One buffer after start: far from the due date, so still in progress.
	if HasQuizFinishedForUser(base.Add(SubmissionBuffer+time.Minute), q, sub) {
		t.Fatal("zero-duration quiz finished before its due date")
	}
}

func TestCanSubmitAnswers(t *testing.T) {
	q := timedQuiz(60)
	sub := &Submission{QuizID: "q1", UserID: "u1", StartedAt: msAt(base)}

	if CanSubmitAnswers(base.Add(59*time.Minute), q, nil) {
		t.Fatal("cannot submit without starting")
	}
	if !CanSubmitAnswers(base.Add(59*time.Minute), q, sub) {
		t.Fatal("must accept answers inside the attempt window")
	}
	if CanSubmitAnswers(base.Add(61*time.Minute), q, sub) {
		t.Fatal("must reject answers past duration+buffer")
	}
}

func TestCanAccessMarks(t *testing.T) {
	q := timedQuiz(60)
	sub := &Submission{QuizID: "q1", UserID: "u1", StartedAt: msAt(base)}
	after := base.Add(61 * time.Minute) // attempt finished

	if CanAccessMarks(after, q, sub) {
		t.Fatal("marks visible without release flag")
	}
	q.MarksReleased = true
	if CanAccessMarks(base.Add(30*time.Minute), q, sub) {
		t.Fatal("marks visible before attempt finished")
	}
	if !CanAccessMarks(after, q, sub) {
		t.Fatal("marks hidden although released and finished")
	}
	q.MarksReleased = false
	if CanAccessMarks(after, q, sub) {
		t.Fatal("clearing the flag must hide marks again")
	}
}

func TestCanAccessAnswerKeyRevealsEarly(t *testing.T) {
	q := timedQuiz(60)
	q.MarksReleased = true
	sub := &Submission{QuizID: "q1", UserID: "u1", StartedAt: msAt(base)}

	// The release buffer is subtracted: the key appears slightly before the
	// personal timer expires, not after.
	early := base.Add(60 * time.Minute).Add(-AnswerReleaseBuffer)
	if CanAccessAnswerKey(early.Add(-time.Millisecond), q, sub) {
		t.Fatal("answer key visible too early")
	}
	if !CanAccessAnswerKey(early, q, sub) {
		t.Fatal("answer key not visible at timer-buffer")
	}

	q.MarksReleased = false
	if CanAccessAnswerKey(base.Add(100*24*time.Hour), q, sub) {
		t.Fatal("answer key visible without release flag")
	}
}

func TestCanAccessAnswerKeyDueDateAnchor(t *testing.T) {
	q := timedQuiz(0)
	q.MarksReleased = true
	due := base.Add(48 * time.Hour)

	// No submission: only the due-date anchor applies.
	if CanAccessAnswerKey(due.Add(-AnswerReleaseBuffer-time.Millisecond), q, nil) {
		t.Fatal("answer key visible before due-buffer")
	}
	if !CanAccessAnswerKey(due.Add(-AnswerReleaseBuffer), q, nil) {
		t.Fatal("answer key not visible at due-buffer")
	}
}
