package services

import (
	"context"
	"fmt"
	"slices"

	"quizbot/internal/models"
)

const (
	historySessionLimit = 10
	recentLimit         = 5
)

type PerformanceLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.PerformanceSummary, error)
}

type StudyHistoryLister interface {
	History(ctx context.Context, userID string, limit int) ([]models.StudySessionRecord, error)
}

// HistoryService combines quiz performance and study sessions into one
// per-topic view.
type HistoryService struct {
	performance PerformanceLister
	study       StudyHistoryLister
}

func NewHistoryService(performance PerformanceLister, study StudyHistoryLister) *HistoryService {
	return &HistoryService{performance: performance, study: study}
}

func (s *HistoryService) LearningHistory(ctx context.Context, userID string) (*models.LearningHistory, error) {
	perf, err := s.performance.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load performance: %w", err)
	}
	sessions, err := s.study.History(ctx, userID, historySessionLimit)
	if err != nil {
		return nil, fmt.Errorf("load study history: %w", err)
	}
	return BuildLearningHistory(perf, sessions), nil
}

// BuildLearningHistory aggregates per topic. AvgScore is the accuracy over
// every recorded question of the topic.
func BuildLearningHistory(perf []models.PerformanceSummary, sessions []models.StudySessionRecord) *models.LearningHistory {
	topics := make(map[string]*models.TopicStats)
	stats := func(topic string) *models.TopicStats {
		st, ok := topics[topic]
		if !ok {
			st = &models.TopicStats{DifficultyLevels: []string{}}
			topics[topic] = st
		}
		return st
	}

	correct := make(map[string]int)
	for _, p := range perf {
		st := stats(p.Topic)
		st.QuizAttempts++
		st.TotalQuestions += p.TotalQuestions
		correct[p.Topic] += p.TotalCorrect
		if p.Difficulty != "" && !slices.Contains(st.DifficultyLevels, p.Difficulty) {
			st.DifficultyLevels = append(st.DifficultyLevels, p.Difficulty)
		}
	}
	for topic, st := range topics {
		if st.TotalQuestions > 0 {
			st.AvgScore = float64(correct[topic]) / float64(st.TotalQuestions) * 100
		}
		slices.Sort(st.DifficultyLevels)
	}

	for _, s := range sessions {
		st := stats(s.Topic)
		st.StudySessions++
		st.TotalStudyTime += s.TotalDuration
	}

	return &models.LearningHistory{
		Topics:              topics,
		RecentStudySessions: firstN(sessions, recentLimit),
		RecentPerformance:   firstN(perf, recentLimit),
	}
}
