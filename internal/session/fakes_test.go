package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizbot/internal/models"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

// fakeScheduler records callbacks instead of running them; tests fire them
// explicitly.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return &fakeTimerHandle{sched: s, t: t}
}

type fakeTimerHandle struct {
	sched *fakeScheduler
	t     *fakeTimer
}

func (h *fakeTimerHandle) Stop() bool {
	h.sched.mu.Lock()
	defer h.sched.mu.Unlock()
	active := !h.t.stopped && !h.t.fired
	h.t.stopped = true
	return active
}

// Outstanding returns the timers that are neither stopped nor fired.
func (s *fakeScheduler) Outstanding() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// FireNext runs the oldest outstanding timer and reports its duration.
func (s *fakeScheduler) FireNext() (time.Duration, bool) {
	s.mu.Lock()
	var next *fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			next = t
			break
		}
	}
	if next != nil {
		next.fired = true
	}
	s.mu.Unlock()

	if next == nil {
		return 0, false
	}
	next.f()
	return next.d, true
}

// All returns every timer ever scheduled, including stopped ones.
func (s *fakeScheduler) All() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*fakeTimer(nil), s.timers...)
}

type stateUpdate struct {
	State     models.StudySessionState
	Completed *int
}

type recordingStore struct {
	mu        sync.Mutex
	created   []uuid.UUID
	updates   []stateUpdate
	summaries map[uuid.UUID]string
	createErr error
	updateErr error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{summaries: make(map[uuid.UUID]string)}
}

func (s *recordingStore) CreateStudySession(_ context.Context, id uuid.UUID, _, _ string, _ models.StudyPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, id)
	return nil
}

func (s *recordingStore) UpdateStudySessionState(_ context.Context, _ uuid.UUID, state models.StudySessionState, completed *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	var c *int
	if completed != nil {
		v := *completed
		c = &v
	}
	s.updates = append(s.updates, stateUpdate{State: state, Completed: c})
	return nil
}

func (s *recordingStore) SaveStudySummary(_ context.Context, id uuid.UUID, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[id] = summary
	return nil
}

func (s *recordingStore) Updates() []stateUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stateUpdate(nil), s.updates...)
}

func (s *recordingStore) States() []models.StudySessionState {
	var out []models.StudySessionState
	for _, u := range s.Updates() {
		out = append(out, u.State)
	}
	return out
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Send(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

type summaryCall struct {
	Topic     string
	Minutes   float64
	Completed int
	Questions []models.AskedQuestion
}

type fakeSummarizer struct {
	mu      sync.Mutex
	summary string
	err     error
	calls   []summaryCall
}

func (f *fakeSummarizer) GenerateStudySummary(_ context.Context, topic string, minutes float64, completed int, questions []models.AskedQuestion) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, summaryCall{topic, minutes, completed, questions})
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

func (f *fakeSummarizer) Calls() []summaryCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]summaryCall(nil), f.calls...)
}

var errStoreDown = errors.New("store down")
