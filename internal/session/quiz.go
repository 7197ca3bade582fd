package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizbot/internal/models"
)

// QuizSession is one user's in-progress quiz. Answer scores and advances in
// one step; the finer-grained RecordCorrect and MoveToNextQuestion leave the
// scoring decision to the caller.
type QuizSession struct {
	UserID     string
	ID         uuid.UUID
	Topic      string
	Difficulty string

	mu                sync.Mutex
	questions         []models.Question
	questionIDs       []uuid.UUID
	current           int
	score             int
	startTime         time.Time
	questionStartTime time.Time
	now               func() time.Time
}

func newQuizSession(userID string, id uuid.UUID, questions []models.Question, questionIDs []uuid.UUID, topic, difficulty string, now func() time.Time) *QuizSession {
	started := now()
	return &QuizSession{
		UserID:            userID,
		ID:                id,
		Topic:             topic,
		Difficulty:        difficulty,
		questions:         questions,
		questionIDs:       questionIDs,
		startTime:         started,
		questionStartTime: started,
		now:               now,
	}
}

// CurrentQuestion returns the question at the current index, or false once
// the quiz is finished.
func (q *QuizSession) CurrentQuestion() (models.Question, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current < len(q.questions) {
		return q.questions[q.current], true
	}
	return models.Question{}, false
}

// QuestionAt returns the question at zero-based index.
func (q *QuizSession) QuestionAt(index int) (models.Question, bool) {
	if index < 0 || index >= len(q.questions) {
		return models.Question{}, false
	}
	return q.questions[index], true
}

// CurrentQuestionID returns the persisted id aligned with the current question.
func (q *QuizSession) CurrentQuestionID() (uuid.UUID, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current < len(q.questionIDs) && q.current < len(q.questions) {
		return q.questionIDs[q.current], true
	}
	return uuid.Nil, false
}

// CheckAnswer compares letter with the current question's answer, ignoring case.
func (q *QuizSession) CheckAnswer(letter string) bool {
	current, ok := q.CurrentQuestion()
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(letter), current.Answer)
}

// RecordCorrect adds one point. The score never exceeds the number of questions.
func (q *QuizSession) RecordCorrect() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.score < len(q.questions) {
		q.score++
	}
}

// AnswerResult describes one question answered through Answer.
type AnswerResult struct {
	Number     int // one-based number of the answered question
	Question   models.Question
	QuestionID uuid.UUID // uuid.Nil when the question was never persisted
	Correct    bool
	Duration   float64
	// Finished is set on the answer that completed the quiz.
	Finished bool
}

// Answer checks letter against the current question, scores it and moves to
// the next question in one step, so two answers racing for the same question
// cannot both count. It reports false once the quiz is finished.
func (q *QuizSession) Answer(letter string) (AnswerResult, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.current >= len(q.questions) {
		return AnswerResult{}, false
	}
	current := q.questions[q.current]
	res := AnswerResult{
		Number:   q.current + 1,
		Question: current,
		Correct:  strings.EqualFold(strings.TrimSpace(letter), current.Answer),
		Duration: q.now().Sub(q.questionStartTime).Seconds(),
	}
	if q.current < len(q.questionIDs) {
		res.QuestionID = q.questionIDs[q.current]
	}
	if res.Correct && q.score < len(q.questions) {
		q.score++
	}
	q.current++
	q.questionStartTime = q.now()
	res.Finished = q.current >= len(q.questions)
	return res, true
}

// AnswerDuration is the number of seconds spent on the current question.
func (q *QuizSession) AnswerDuration() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.now().Sub(q.questionStartTime).Seconds()
}

func (q *QuizSession) MoveToNextQuestion() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current < len(q.questions) {
		q.current++
	}
	q.questionStartTime = q.now()
}

func (q *QuizSession) IsFinished() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current >= len(q.questions)
}

// Current is the zero-based index of the question being answered.
func (q *QuizSession) Current() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}

func (q *QuizSession) Score() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.score
}

func (q *QuizSession) TotalQuestions() int {
	return len(q.questions)
}

// FinalStats summarizes the quiz so far. It is safe to call before the quiz
// is finished.
func (q *QuizSession) FinalStats() models.QuizStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	total := len(q.questions)
	elapsed := q.now().Sub(q.startTime)

	stats := models.QuizStats{
		Score:          q.score,
		TotalQuestions: total,
		TotalDuration:  formatDuration(elapsed),
	}
	if total > 0 {
		stats.Percentage = float64(q.score) / float64(total) * 100
		stats.AvgDurationPerQuestion = elapsed.Seconds() / float64(total)
	}
	return stats
}

// formatDuration renders d rounded to the second as H:MM:SS.
func formatDuration(d time.Duration) string {
	secs := int64(d.Round(time.Second) / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

// QuizManager holds at most one quiz per user. Creating a quiz replaces any
// quiz the user already had.
type QuizManager struct {
	mu       sync.RWMutex
	sessions map[string]*QuizSession
	now      func() time.Time
}

func NewQuizManager() *QuizManager {
	return &QuizManager{
		sessions: make(map[string]*QuizSession),
		now:      time.Now,
	}
}

func (m *QuizManager) Create(userID string, questions []models.Question, topic, difficulty string, questionIDs []uuid.UUID) *QuizSession {
	return m.CreateWithID(userID, uuid.New(), questions, topic, difficulty, questionIDs)
}

// CreateWithID is Create for callers that persisted the session under id
// before starting it.
func (m *QuizManager) CreateWithID(userID string, id uuid.UUID, questions []models.Question, topic, difficulty string, questionIDs []uuid.UUID) *QuizSession {
	s := newQuizSession(userID, id, questions, questionIDs, topic, difficulty, m.now)

	m.mu.Lock()
	m.sessions[userID] = s
	m.mu.Unlock()

	return s
}

func (m *QuizManager) Get(userID string) (*QuizSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

func (m *QuizManager) End(userID string) {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
}

func (m *QuizManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
