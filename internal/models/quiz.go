package models

import (
	"time"

	"github.com/google/uuid"
)

// Question is one multiple-choice quiz item. Answer is a single letter A-D.
type Question struct {
	Text        string   `json:"question" validate:"required"`
	Options     []string `json:"options" validate:"len=4,dive,required"`
	Answer      string   `json:"answer" validate:"required,oneof=A B C D"`
	Explanation string   `json:"explanation"`
}

type GeneratedQuiz struct {
	Topic      string     `json:"topic"`
	Difficulty string     `json:"difficulty"`
	Count      int        `json:"jumlah_soal"`
	Questions  []Question `json:"questions"`
}

type QuizSessionRecord struct {
	ID             uuid.UUID `json:"id"`
	UserID         string    `json:"user_id"`
	Topic          string    `json:"topic"`
	Difficulty     string    `json:"difficulty"`
	TotalQuestions int       `json:"total_questions"`
	CreatedAt      time.Time `json:"created_at"`
}

type QuizAnswer struct {
	QuizQuestionID  uuid.UUID `json:"quiz_question_id"`
	UserID          string    `json:"user_id"`
	UserAnswer      string    `json:"user_answer"`
	IsCorrect       bool      `json:"is_correct"`
	DurationSeconds float64   `json:"duration_seconds"`
}

// QuizStats is the end-of-quiz summary. TotalDuration is formatted H:MM:SS.
type QuizStats struct {
	Score                  int     `json:"score"`
	TotalQuestions         int     `json:"total_questions"`
	Percentage             float64 `json:"percentage"`
	TotalDuration          string  `json:"total_duration"`
	AvgDurationPerQuestion float64 `json:"avg_duration_per_q"`
}

type PerformanceSummary struct {
	ID             uuid.UUID `json:"id"`
	UserID         string    `json:"user_id"`
	Topic          string    `json:"topic"`
	Difficulty     string    `json:"difficulty"`
	TotalSessions  int       `json:"total_sessions"`
	TotalQuestions int       `json:"total_questions"`
	TotalCorrect   int       `json:"total_correct"`
	AvgScore       float64   `json:"avg_score"`
	LastUpdated    time.Time `json:"last_updated"`
}
