package quiz

import "time"

// Two buffers absorb clock skew and request latency around the end of an
// attempt. SubmissionBuffer extends the window in which answers are still
// accepted; AnswerReleaseBuffer lets correct-answer flags appear slightly
// before the nominal end. One is added to the deadline and the other is
// subtracted: accept late, reveal early. The asymmetry is intentional.
const (
	SubmissionBuffer    = 30 * time.Second
	AnswerReleaseBuffer = 10 * time.Second
)

func millis(d time.Duration) int64 { return d.Milliseconds() }

// durationMillis is the per-attempt timer length, or 0 when the quiz has no
// timer beyond its due date.
func durationMillis(q Quiz) int64 {
	return int64(q.DurationMins) * 60_000
}

// IsQuizActive reports whether now falls inside the quiz's open window.
// Both ends are inclusive. A quiz whose release date lies after its due date
// is never active; that misconfiguration is the caller's to avoid.
func IsQuizActive(now time.Time, q Quiz) bool {
	ms := now.UnixMilli()
	return ms >= q.ReleaseAt && ms <= q.DueAt
}

// HasQuizFinishedForUser reports whether the user's attempt is over: past the
// due date, or past the personal timer anchored at their start time, each
// extended by SubmissionBuffer. False when the user never started.
func HasQuizFinishedForUser(now time.Time, q Quiz, sub *Submission) bool {
	if sub == nil {
		return false
	}
	ms := now.UnixMilli()
	if ms >= q.DueAt+millis(SubmissionBuffer) {
		return true
	}
	if dur := durationMillis(q); dur > 0 && ms >= sub.StartedAt+dur+millis(SubmissionBuffer) {
		return true
	}
	return false
}

// CanSubmitAnswers reports whether the user may still save answers: they have
// started and their attempt has not finished.
func CanSubmitAnswers(now time.Time, q Quiz, sub *Submission) bool {
	return sub != nil && !HasQuizFinishedForUser(now, q, sub)
}

// CanAccessMarks reports whether the user may read their marks: the educator
// has released marks and the attempt is over.
func CanAccessMarks(now time.Time, q Quiz, sub *Submission) bool {
	return q.MarksReleased && HasQuizFinishedForUser(now, q, sub)
}

// CanAccessAnswerKey reports whether option correctness flags may be shown to
// the user. The release buffer is subtracted, so the key can appear up to
// AnswerReleaseBuffer before the nominal end of the attempt.
func CanAccessAnswerKey(now time.Time, q Quiz, sub *Submission) bool {
	if !q.MarksReleased {
		return false
	}
	ms := now.UnixMilli()
	if ms >= q.DueAt-millis(AnswerReleaseBuffer) {
		return true
	}
	if dur := durationMillis(q); dur > 0 && sub != nil && ms >= sub.StartedAt+dur-millis(AnswerReleaseBuffer) {
		return true
	}
	return false
}
