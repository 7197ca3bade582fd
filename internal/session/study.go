package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizbot/internal/models"
	"quizbot/internal/textutil"
)

// ErrSessionEnded is returned when an interval or break is started on a
// session that already reached a terminal state.
var ErrSessionEnded = errors.New("study session already ended")

// Notifier delivers a single message to the user's chat surface.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// StudyStore is the durable record of study sessions.
type StudyStore interface {
	CreateStudySession(ctx context.Context, id uuid.UUID, userID, topic string, plan models.StudyPlan) error
	UpdateStudySessionState(ctx context.Context, id uuid.UUID, state models.StudySessionState, completedIntervals *int) error
	SaveStudySummary(ctx context.Context, id uuid.UUID, summary string) error
}

// SummaryGenerator writes the end-of-session summary. Implementations turn
// their own failures into fallback text.
type SummaryGenerator interface {
	GenerateStudySummary(ctx context.Context, topic string, elapsedMinutes float64, completedIntervals int, questions []models.AskedQuestion) (string, error)
}

type timerKind int

const (
	studyTimer timerKind = iota
	breakTimer
)

func (k timerKind) String() string {
	if k == studyTimer {
		return "study"
	}
	return "break"
}

// StudySession runs a study plan interval by interval. After the first
// interval is started the session drives itself: a study timer moves it to a
// break, a break timer moves it to the next interval or to completion.
type StudySession struct {
	UserID string
	ID     uuid.UUID
	Topic  string

	intervals []models.StudyInterval
	notifier  Notifier
	store     StudyStore
	ai        SummaryGenerator
	sched     Scheduler
	baseCtx   context.Context
	now       func() time.Time

	mu sync.Mutex
	// currentInterval is the index of the running interval while the session
	// is Active or Resting. It is only incremented when a break ends, so once
	// the session is over it also reads as the number of completed intervals.
	currentInterval int
	state           models.StudySessionState
	questions       []models.AskedQuestion
	studyTimer      Timer
	breakTimer      Timer
	generation      uint64
	pending         uint64
	startTime       time.Time
}

func newStudySession(ctx context.Context, userID string, id uuid.UUID, topic string, intervals []models.StudyInterval, notifier Notifier, store StudyStore, ai SummaryGenerator, sched Scheduler, now func() time.Time) *StudySession {
	return &StudySession{
		UserID:    userID,
		ID:        id,
		Topic:     topic,
		intervals: intervals,
		notifier:  notifier,
		store:     store,
		ai:        ai,
		sched:     sched,
		baseCtx:   ctx,
		now:       now,
		state:     models.StudyStateActive,
		startTime: now(),
	}
}

// StartStudyInterval begins the current interval, or ends the session when
// every interval has been consumed.
func (s *StudySession) StartStudyInterval(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return ErrSessionEnded
	}
	if s.currentInterval >= len(s.intervals) {
		s.mu.Unlock()
		return s.EndSession(ctx)
	}
	number := s.currentInterval + 1
	interval := s.intervals[s.currentInterval]
	s.state = models.StudyStateActive
	s.mu.Unlock()

	if err := s.store.UpdateStudySessionState(ctx, s.ID, models.StudyStateActive, nil); err != nil {
		return fmt.Errorf("persist active state: %w", err)
	}
	if err := s.settle(ctx); err != nil {
		return err
	}
	if err := s.send(ctx, intervalStartMessage(number, s.Topic, interval)); err != nil {
		return err
	}

	s.schedule(studyTimer, minutes(interval.StudyMinutes))
	return nil
}

// StartBreak moves the session into its rest phase for the current interval.
func (s *StudySession) StartBreak(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return ErrSessionEnded
	}
	if s.currentInterval >= len(s.intervals) {
		s.mu.Unlock()
		return s.EndSession(ctx)
	}
	interval := s.intervals[s.currentInterval]
	s.state = models.StudyStateResting
	s.mu.Unlock()

	if err := s.store.UpdateStudySessionState(ctx, s.ID, models.StudyStateResting, nil); err != nil {
		return fmt.Errorf("persist resting state: %w", err)
	}
	if err := s.settle(ctx); err != nil {
		return err
	}
	if err := s.send(ctx, breakStartMessage(interval)); err != nil {
		return err
	}

	s.schedule(breakTimer, minutes(interval.BreakMinutes))
	return nil
}

// EndSession cancels any pending timer, marks the session completed, and
// posts an AI-written summary to the channel. Calling it again is safe.
func (s *StudySession) EndSession(ctx context.Context) error {
	s.mu.Lock()
	s.stopTimersLocked()
	s.state = models.StudyStateCompleted
	completed := s.currentInterval
	elapsed := s.now().Sub(s.startTime)
	questions := slices.Clone(s.questions)
	s.mu.Unlock()

	if err := s.store.UpdateStudySessionState(ctx, s.ID, models.StudyStateCompleted, nil); err != nil {
		return fmt.Errorf("persist completed state: %w", err)
	}

	elapsedMinutes := elapsed.Minutes()
	summary, err := s.ai.GenerateStudySummary(ctx, s.Topic, elapsedMinutes, completed, questions)
	if err != nil {
		return fmt.Errorf("generate study summary: %w", err)
	}
	if err := s.store.SaveStudySummary(ctx, s.ID, summary); err != nil {
		return fmt.Errorf("save study summary: %w", err)
	}

	return s.send(ctx, completionMessage(s.Topic, completed, int(elapsedMinutes), summary))
}

// CanAskQuestions reports whether a study interval (not a break) is running.
func (s *StudySession) CanAskQuestions() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == models.StudyStateActive
}

// AddQuestion logs a question and its answer. It does not check the state;
// callers consult CanAskQuestions first.
func (s *StudySession) AddQuestion(question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = append(s.questions, models.AskedQuestion{
		Question:  question,
		Answer:    answer,
		Timestamp: s.now(),
	})
}

func (s *StudySession) State() models.StudySessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *StudySession) CurrentInterval() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentInterval
}

func (s *StudySession) TotalIntervals() int {
	return len(s.intervals)
}

func (s *StudySession) Intervals() []models.StudyInterval {
	return slices.Clone(s.intervals)
}

func (s *StudySession) Questions() []models.AskedQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.questions)
}

func (s *StudySession) StartTime() time.Time {
	return s.startTime
}

// schedule arms the timer of the given kind, replacing any outstanding one.
// Nothing is armed once the session is terminal.
func (s *StudySession) schedule(kind timerKind, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return
	}
	s.stopTimersLocked()

	s.generation++
	token := s.generation
	t := s.sched.AfterFunc(d, func() { s.advance(kind, token) })

	s.pending = token
	if kind == studyTimer {
		s.studyTimer = t
	} else {
		s.breakTimer = t
	}
}

// advance is the single entry point the scheduler drives. A token that no
// longer matches the outstanding timer belongs to a cancelled timer and is
// dropped.
func (s *StudySession) advance(kind timerKind, token uint64) {
	s.mu.Lock()
	if token != s.pending || s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.pending = 0
	s.studyTimer, s.breakTimer = nil, nil
	s.mu.Unlock()

	var err error
	switch kind {
	case studyTimer:
		err = s.finishStudy(s.baseCtx)
	case breakTimer:
		err = s.finishBreak(s.baseCtx)
	}
	if err != nil && !errors.Is(err, ErrSessionEnded) {
		log.Printf("study session %s: %s timer: %v", s.ID, kind, err)
	}
}

func (s *StudySession) finishStudy(ctx context.Context) error {
	s.mu.Lock()
	state := s.state
	completed := s.currentInterval
	more := s.currentInterval < len(s.intervals)
	s.mu.Unlock()

	if err := s.store.UpdateStudySessionState(ctx, s.ID, state, &completed); err != nil {
		return fmt.Errorf("persist interval progress: %w", err)
	}
	if err := s.settle(ctx); err != nil {
		return err
	}
	if more {
		return s.StartBreak(ctx)
	}
	return nil
}

func (s *StudySession) finishBreak(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return ErrSessionEnded
	}
	s.currentInterval++
	more := s.currentInterval < len(s.intervals)
	s.mu.Unlock()

	if more {
		return s.StartStudyInterval(ctx)
	}
	return s.EndSession(ctx)
}

// settle runs after a non-terminal state was persisted. If the session was
// ended while that write was in flight, the write may have landed after the
// terminal one, so the terminal state is written again and ErrSessionEnded
// stops the step before it notifies or arms a timer.
func (s *StudySession) settle(ctx context.Context) error {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	if !state.Terminal() {
		return nil
	}
	if err := s.store.UpdateStudySessionState(ctx, s.ID, state, nil); err != nil {
		return fmt.Errorf("persist %s state: %w", state, err)
	}
	return ErrSessionEnded
}

// cancel stops any pending timer and, unless the session already finished,
// marks it cancelled. It reports whether the state changed.
func (s *StudySession) cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimersLocked()
	if s.state.Terminal() {
		return false
	}
	s.state = models.StudyStateCancelled
	return true
}

func (s *StudySession) stopTimersLocked() {
	if s.studyTimer != nil {
		s.studyTimer.Stop()
		s.studyTimer = nil
	}
	if s.breakTimer != nil {
		s.breakTimer.Stop()
		s.breakTimer = nil
	}
	s.pending = 0
}

// send delivers text, split into message-sized chunks when it is too long.
func (s *StudySession) send(ctx context.Context, text string) error {
	if textutil.Fits(text) {
		if err := s.notifier.Send(ctx, text); err != nil {
			return fmt.Errorf("send notification: %w", err)
		}
		return nil
	}
	for _, chunk := range textutil.SplitIntoChunks(text, textutil.DefaultChunkSize) {
		if err := s.notifier.Send(ctx, chunk); err != nil {
			return fmt.Errorf("send notification: %w", err)
		}
	}
	return nil
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
