package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quizbot/internal/models"
)

type QuizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *QuizRepo {
	return &QuizRepo{pool: pool}
}

func (r *QuizRepo) CreateSession(ctx context.Context, s *models.QuizSessionRecord) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO quiz_sessions (id, user_id, topic, difficulty, total_questions)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		s.ID, s.UserID, s.Topic, s.Difficulty, s.TotalQuestions,
	).Scan(&s.CreatedAt)
}

// SaveQuestions stores the generated questions and links them to the session
// in order. The returned ids are the quiz_questions rows, aligned with qs.
func (r *QuizRepo) SaveQuestions(ctx context.Context, sessionID uuid.UUID, topic, difficulty string, qs []models.Question) ([]uuid.UUID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, len(qs))
	for i, q := range qs {
		questionID := uuid.New()
		options, _ := json.Marshal(q.Options)

		if _, err := tx.Exec(ctx, `
			INSERT INTO questions (id, topic, difficulty, question_text, options, correct_answer, explanation)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			questionID, topic, difficulty, q.Text, options, q.Answer, q.Explanation,
		); err != nil {
			return nil, err
		}

		if err := tx.QueryRow(ctx, `
			INSERT INTO quiz_questions (session_id, question_id, sequence)
			VALUES ($1, $2, $3)
			RETURNING id`,
			sessionID, questionID, i+1,
		).Scan(&ids[i]); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *QuizRepo) SaveAnswer(ctx context.Context, a *models.QuizAnswer) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO quiz_answers (quiz_question_id, user_id, user_answer, is_correct, duration_seconds)
		VALUES ($1, $2, $3, $4, $5)`,
		a.QuizQuestionID, a.UserID, a.UserAnswer, a.IsCorrect, a.DurationSeconds)
	return err
}

// ExistingTopics lists the distinct topics already tracked at a difficulty.
func (r *QuizRepo) ExistingTopics(ctx context.Context, difficulty string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT topic FROM performance_summary WHERE difficulty = $1 ORDER BY topic`, difficulty)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
