package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizbot/internal/models"
)

var (
	// ErrSessionExists is returned by StudySessionManager.Create when the
	// user already holds a study session.
	ErrSessionExists = errors.New("user already has an active study session")
)

// StudySessionManager owns every user's study session. Unlike QuizManager it
// refuses to replace an existing entry.
type StudySessionManager struct {
	store StudyStore
	ai    SummaryGenerator
	sched Scheduler
	now   func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*StudySession
}

func NewStudySessionManager(store StudyStore, ai SummaryGenerator, sched Scheduler) *StudySessionManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &StudySessionManager{
		store:    store,
		ai:       ai,
		sched:    sched,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*StudySession),
	}
}

// Create registers a new study session for userID and records it in the
// store. The first interval is not started; the caller does that once the
// user confirms the plan.
func (m *StudySessionManager) Create(ctx context.Context, userID, topic string, plan models.StudyPlan, notifier Notifier) (*StudySession, error) {
	m.mu.Lock()
	if _, exists := m.sessions[userID]; exists {
		m.mu.Unlock()
		return nil, ErrSessionExists
	}
	s := newStudySession(m.ctx, userID, uuid.New(), topic, plan.Intervals(), notifier, m.store, m.ai, m.sched, m.now)
	m.sessions[userID] = s
	m.mu.Unlock()

	if err := m.store.CreateStudySession(ctx, s.ID, userID, topic, plan); err != nil {
		m.mu.Lock()
		if m.sessions[userID] == s {
			delete(m.sessions, userID)
		}
		m.mu.Unlock()
		return nil, fmt.Errorf("create study session: %w", err)
	}
	return s, nil
}

func (m *StudySessionManager) Get(userID string) (*StudySession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// End drops the user's session after cancelling its timers. A session that
// was still running is recorded as cancelled.
func (m *StudySessionManager) End(ctx context.Context, userID string) error {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()
	if !ok {
		return nil
	}

	if !s.cancel() {
		return nil
	}
	if err := m.store.UpdateStudySessionState(ctx, s.ID, models.StudyStateCancelled, nil); err != nil {
		return fmt.Errorf("persist cancelled state: %w", err)
	}
	return nil
}

// Shutdown stops every pending timer. Sessions stay in memory; their
// persisted state is left as it was.
func (m *StudySessionManager) Shutdown() {
	m.cancel()

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		s.mu.Lock()
		s.stopTimersLocked()
		s.mu.Unlock()
	}
}

func (m *StudySessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
