package models

import (
	"time"

	"github.com/google/uuid"
)

type StudySessionState string

const (
	StudyStateActive    StudySessionState = "active"
	StudyStateResting   StudySessionState = "resting"
	StudyStateCompleted StudySessionState = "completed"
	StudyStateCancelled StudySessionState = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s StudySessionState) Terminal() bool {
	return s == StudyStateCompleted || s == StudyStateCancelled
}

// PlanSession is one entry of an AI-generated study plan.
type PlanSession struct {
	Duration int    `json:"duration" validate:"min=1"`
	Break    int    `json:"break" validate:"min=1"`
	Focus    string `json:"focus" validate:"required"`
}

type StudyPlan struct {
	Topic                string        `json:"topic" validate:"required"`
	TotalDurationMinutes int           `json:"total_duration_minutes" validate:"min=1"`
	Sessions             []PlanSession `json:"sessions" validate:"required,min=1,dive"`
	Description          string        `json:"description"`
}

// StudyInterval is one study-then-break unit of a running session.
type StudyInterval struct {
	StudyMinutes int    `json:"study_duration_minutes"`
	BreakMinutes int    `json:"break_duration_minutes"`
	Focus        string `json:"focus"`
}

// Intervals expands the plan's sessions into the interval sequence a study
// session runs through.
func (p StudyPlan) Intervals() []StudyInterval {
	out := make([]StudyInterval, len(p.Sessions))
	for i, s := range p.Sessions {
		out[i] = StudyInterval{StudyMinutes: s.Duration, BreakMinutes: s.Break, Focus: s.Focus}
	}
	return out
}

type AskedQuestion struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

type StudyIntervalRecord struct {
	ID              uuid.UUID `json:"id"`
	Sequence        int       `json:"sequence"`
	DurationMinutes int       `json:"duration_minutes"`
	BreakDuration   int       `json:"break_duration"`
	Focus           string    `json:"focus"`
}

type StudySessionRecord struct {
	ID                 uuid.UUID             `json:"id"`
	UserID             string                `json:"user_id"`
	Topic              string                `json:"topic"`
	TotalDuration      int                   `json:"total_duration"`
	State              StudySessionState     `json:"state"`
	StartTime          time.Time             `json:"start_time"`
	CompletedIntervals int                   `json:"completed_intervals"`
	CurrentInterval    int                   `json:"current_interval"`
	Description        string                `json:"description"`
	CreatedAt          time.Time             `json:"created_at"`
	Intervals          []StudyIntervalRecord `json:"study_intervals"`
	Summary            *string               `json:"summary"`
	ActualDuration     int                   `json:"actual_duration"`
}
