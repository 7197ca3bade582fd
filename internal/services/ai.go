package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"quizbot/internal/llm"
	"quizbot/internal/models"
)

const (
	defaultDifficulty  = "sedang"
	defaultQuizCount   = 5
	defaultTopic       = "Topik Umum"
	summaryQuestionCap = 5
)

// Fallback texts returned when the model cannot be reached.
const (
	FallbackSuggestion      = "## ⚠️ Analysis Failed\nCould not get suggestions from the AI. Please try again later."
	FallbackStudyAnswer     = "Sorry, I had trouble generating an answer. Please try again."
	FallbackRecommendations = "Failed to generate recommendations. Please try again later."
	FallbackStudySummary    = "Failed to generate study session summary."
)

// ErrNoQuestions is returned when a generated quiz has no usable question.
var ErrNoQuestions = errors.New("generated quiz has no valid questions")

var quizSchema = &llm.Schema{
	Name: "quiz",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topic":       map[string]any{"type": "string"},
			"difficulty":  map[string]any{"type": "string"},
			"jumlah_soal": map[string]any{},
			"questions":   map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
		},
		"required": []string{"questions"},
	},
}

var topicMatchSchema = &llm.Schema{
	Name: "topic-match",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"matched_topic": map[string]any{"type": "string"},
		},
		"required": []string{"matched_topic"},
	},
}

var studyPlanSchema = &llm.Schema{
	Name: "study-plan",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topic":                  map[string]any{"type": "string"},
			"total_duration_minutes": map[string]any{"type": "integer"},
			"description":            map[string]any{"type": "string"},
			"sessions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"duration": map[string]any{"type": "integer"},
						"break":    map[string]any{"type": "integer"},
						"focus":    map[string]any{"type": "string"},
					},
					"required": []string{"duration", "break", "focus"},
				},
			},
		},
		"required": []string{"topic", "total_duration_minutes", "sessions", "description"},
	},
}

// AIService builds prompts for every bot feature and turns model replies
// into domain values.
type AIService struct {
	provider llm.Provider
	language string
	timeout  time.Duration
}

func NewAIService(provider llm.Provider, language string, timeout time.Duration) *AIService {
	if language == "" {
		language = "Indonesian"
	}
	return &AIService{provider: provider, language: language, timeout: timeout}
}

func (s *AIService) generate(ctx context.Context, purpose string, req llm.Request) (*llm.Response, error) {
	ctx = llm.WithPurpose(ctx, purpose)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.provider.Generate(ctx, req)
}

// text runs a free-text request and falls back on failure.
func (s *AIService) text(ctx context.Context, purpose, prompt, fallback string) string {
	resp, err := s.generate(ctx, purpose, llm.UserPrompt("", prompt))
	if err != nil {
		log.Printf("✗ ai %s: %v", purpose, err)
		return fallback
	}
	if strings.TrimSpace(resp.Content) == "" {
		return fallback
	}
	return resp.Content
}

// GenerateQuiz extracts topic, difficulty and count from a free-form request
// and generates the questions. Questions that fail validation are dropped.
func (s *AIService) GenerateQuiz(ctx context.Context, request string) (*models.GeneratedQuiz, error) {
	req := llm.UserPrompt("", buildQuizPrompt(request, s.language))
	req.Schema = quizSchema

	resp, err := s.generate(ctx, "quiz", req)
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	var raw struct {
		Topic      string            `json:"topic"`
		Difficulty string            `json:"difficulty"`
		Count      json.Number       `json:"jumlah_soal"`
		Questions  []json.RawMessage `json:"questions"`
	}
	if err := resp.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode quiz: %w", err)
	}

	quiz := &models.GeneratedQuiz{
		Topic:      firstNonEmpty(raw.Topic, defaultTopic),
		Difficulty: strings.ToLower(firstNonEmpty(raw.Difficulty, defaultDifficulty)),
		Count:      defaultQuizCount,
	}
	if n, err := raw.Count.Int64(); err == nil && n > 0 {
		quiz.Count = int(n)
	}

	for i, rq := range raw.Questions {
		q, err := ParseQuestion(i, rq)
		if err != nil {
			log.Printf("✗ ai quiz: dropping %v", err)
			continue
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	if len(quiz.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	return quiz, nil
}

// MatchTopic maps newTopic onto one of existing when the model finds a
// strong match. Only names already in existing are ever returned besides
// newTopic itself.
func (s *AIService) MatchTopic(ctx context.Context, newTopic, difficulty string, existing []string) string {
	if len(existing) == 0 || slices.Contains(existing, newTopic) {
		return newTopic
	}

	req := llm.UserPrompt("", buildTopicMatchPrompt(newTopic, difficulty, existing))
	req.Schema = topicMatchSchema

	resp, err := s.generate(ctx, "topic-match", req)
	if err != nil {
		log.Printf("✗ ai topic-match: %v", err)
		return newTopic
	}
	var out struct {
		MatchedTopic string `json:"matched_topic"`
	}
	if err := resp.Decode(&out); err != nil {
		return newTopic
	}

	matched := strings.ToLower(strings.TrimSpace(out.MatchedTopic))
	for _, t := range existing {
		if strings.ToLower(t) == matched {
			return t
		}
	}
	return newTopic
}

func (s *AIService) PerformanceSuggestion(ctx context.Context, rows []models.PerformanceSummary) string {
	return s.text(ctx, "performance", buildPerformancePrompt(rows, s.language), FallbackSuggestion)
}

func (s *AIService) AnswerStudyQuestion(ctx context.Context, topic, question string) string {
	return s.text(ctx, "study-answer", buildStudyAnswerPrompt(topic, question, s.language), FallbackStudyAnswer)
}

func (s *AIService) Recommendations(ctx context.Context, history *models.LearningHistory) string {
	return s.text(ctx, "recommend", buildRecommendationPrompt(history, s.language), FallbackRecommendations)
}

// GenerateStudySummary never fails; a fallback text stands in for the
// summary when the model is unavailable.
func (s *AIService) GenerateStudySummary(ctx context.Context, topic string, elapsedMinutes float64, completed int, questions []models.AskedQuestion) (string, error) {
	prompt := buildStudySummaryPrompt(topic, elapsedMinutes, completed, questions, s.language)
	return s.text(ctx, "study-summary", prompt, FallbackStudySummary), nil
}

// GenerateStudyPlan turns a free-form request into a validated plan.
func (s *AIService) GenerateStudyPlan(ctx context.Context, request string) (models.StudyPlan, error) {
	req := llm.UserPrompt("", buildStudyPlanPrompt(request, s.language))
	req.Schema = studyPlanSchema

	resp, err := s.generate(ctx, "study-plan", req)
	if err != nil {
		return models.StudyPlan{}, fmt.Errorf("generate study plan: %w", err)
	}
	return ParseStudyPlan([]byte(resp.Content))
}

// completionPercentage estimates progress as n/(n+1) because the plan length
// is not known here.
func completionPercentage(completed int) float64 {
	if completed <= 0 {
		return 0
	}
	return float64(completed) / float64(completed+1) * 100
}
