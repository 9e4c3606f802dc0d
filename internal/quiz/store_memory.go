package quiz

import (
	"context"
	"sort"
	"sync"
)

type subKey struct {
	quizID string
	userID string
}

type memoryStore struct {
	mu          sync.RWMutex
	quizzes     map[string]Quiz
	questions   map[string][]Question
	submissions map[subKey]Submission
	responses   map[subKey][]Response
}

// NewMemoryStore returns an in-memory Store. Used by tests and by single-node
// setups that do not need persistence across restarts.
func NewMemoryStore() Store {
	return &memoryStore{
		quizzes:     map[string]Quiz{},
		questions:   map[string][]Question{},
		submissions: map[subKey]Submission{},
		responses:   map[subKey][]Response{},
	}
}

func (m *memoryStore) CreateQuiz(_ context.Context, q Quiz, questions []Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[q.ID]; ok {
		return conflictf("quiz %s already exists", q.ID)
	}
	m.quizzes[q.ID] = q
	m.questions[q.ID] = cloneQuestions(questions)
	return nil
}

func (m *memoryStore) GetQuiz(_ context.Context, quizID string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[quizID]
	if !ok {
		return Quiz{}, notFoundf("quiz %s", quizID)
	}
	return q, nil
}

func (m *memoryStore) GetQuestions(_ context.Context, quizID string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.quizzes[quizID]; !ok {
		return nil, notFoundf("quiz %s", quizID)
	}
	return cloneQuestions(m.questions[quizID]), nil
}

func (m *memoryStore) ListQuizzes(_ context.Context, courseID string) ([]Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Quiz{}
	for _, q := range m.quizzes {
		if q.CourseID == courseID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) ReplaceQuiz(_ context.Context, q Quiz, questions []Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.quizzes[q.ID]
	if !ok {
		return notFoundf("quiz %s", q.ID)
	}
	q.CourseID = old.CourseID
	m.quizzes[q.ID] = q
	m.questions[q.ID] = cloneQuestions(questions)
	m.dropAttempts(q.ID)
	return nil
}

func (m *memoryStore) DeleteQuiz(_ context.Context, quizID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[quizID]; !ok {
		return notFoundf("quiz %s", quizID)
	}
	delete(m.quizzes, quizID)
	delete(m.questions, quizID)
	m.dropAttempts(quizID)
	return nil
}

func (m *memoryStore) SetMarksReleased(_ context.Context, quizID string, released bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quizzes[quizID]
	if !ok {
		return notFoundf("quiz %s", quizID)
	}
	q.MarksReleased = released
	m.quizzes[quizID] = q
	return nil
}

func (m *memoryStore) CountSubmissions(_ context.Context, quizID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for k := range m.submissions {
		if k.quizID == quizID {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) CreateSubmission(_ context.Context, sub Submission, questionNumbers []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[sub.QuizID]; !ok {
		return notFoundf("quiz %s", sub.QuizID)
	}
	k := subKey{sub.QuizID, sub.UserID}
	if _, ok := m.submissions[k]; ok {
		return conflictf("quiz %s already started by %s", sub.QuizID, sub.UserID)
	}
	m.submissions[k] = sub
	blank := make([]Response, 0, len(questionNumbers))
	for _, qn := range questionNumbers {
		blank = append(blank, Response{QuizID: sub.QuizID, UserID: sub.UserID, QuestionNumber: qn})
	}
	m.responses[k] = blank
	return nil
}

func (m *memoryStore) GetSubmission(_ context.Context, quizID, userID string) (Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.submissions[subKey{quizID, userID}]
	if !ok {
		return Submission{}, notFoundf("submission %s/%s", quizID, userID)
	}
	return sub, nil
}

func (m *memoryStore) ReplaceResponses(_ context.Context, quizID, userID string, responses []Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := subKey{quizID, userID}
	rows, ok := m.responses[k]
	if !ok {
		return notFoundf("submission %s/%s", quizID, userID)
	}
	byNumber := make(map[int]Response, len(responses))
	for _, r := range responses {
		byNumber[r.QuestionNumber] = r
	}
	for i := range rows {
		rows[i].AnswerText = nil
		rows[i].OptionNumber = nil
		rows[i].Mark = 0
		if r, ok := byNumber[rows[i].QuestionNumber]; ok {
			rows[i].AnswerText = r.AnswerText
			rows[i].OptionNumber = r.OptionNumber
			rows[i].Mark = r.Mark
		}
	}
	m.responses[k] = rows
	return nil
}

func (m *memoryStore) GetResponses(_ context.Context, quizID, userID string) ([]Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows, ok := m.responses[subKey{quizID, userID}]
	if !ok {
		return nil, notFoundf("submission %s/%s", quizID, userID)
	}
	out := make([]Response, len(rows))
	copy(out, rows)
	return out, nil
}

func (m *memoryStore) ApplyMarks(_ context.Context, quizID, userID string, marks map[int]float64, markedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := subKey{quizID, userID}
	sub, ok := m.submissions[k]
	if !ok {
		return notFoundf("submission %s/%s", quizID, userID)
	}
	rows := m.responses[k]
	for i := range rows {
		if mark, ok := marks[rows[i].QuestionNumber]; ok {
			rows[i].Mark = mark
		}
	}
	m.responses[k] = rows
	sub.MarkedBy = markedBy
	m.submissions[k] = sub
	return nil
}

// dropAttempts removes all submissions and responses of a quiz. Caller holds mu.
func (m *memoryStore) dropAttempts(quizID string) {
	for k := range m.submissions {
		if k.quizID == quizID {
			delete(m.submissions, k)
		}
	}
	for k := range m.responses {
		if k.quizID == quizID {
			delete(m.responses, k)
		}
	}
}

func cloneQuestions(in []Question) []Question {
	out := make([]Question, len(in))
	copy(out, in)
	for i := range out {
		opts := make([]Option, len(in[i].Options))
		copy(opts, in[i].Options)
		out[i].Options = opts
	}
	return out
}
