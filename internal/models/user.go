package models

import "time"

// User is a Discord account that has used the bot. ID is the Discord snowflake.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TopicStats struct {
	QuizAttempts     int      `json:"quiz_attempts"`
	AvgScore         float64  `json:"avg_score"`
	TotalQuestions   int      `json:"total_questions"`
	StudySessions    int      `json:"study_sessions"`
	TotalStudyTime   int      `json:"total_study_time"`
	DifficultyLevels []string `json:"difficulty_levels"`
}

type LearningHistory struct {
	Topics              map[string]*TopicStats `json:"topics_data"`
	RecentStudySessions []StudySessionRecord   `json:"recent_study_sessions"`
	RecentPerformance   []PerformanceSummary   `json:"recent_performance"`
}
