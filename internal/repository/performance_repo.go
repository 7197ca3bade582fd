package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quizbot/internal/models"
)

type PerformanceRepo struct {
	pool *pgxpool.Pool
}

func NewPerformanceRepo(pool *pgxpool.Pool) *PerformanceRepo {
	return &PerformanceRepo{pool: pool}
}

// Record adds one answered question to the user's running totals for topic.
// The first answer creates the row; avg_score is recomputed in the same
// statement so concurrent answers cannot lose updates.
func (r *PerformanceRepo) Record(ctx context.Context, userID, topic, difficulty string, correct bool) error {
	hit := 0
	if correct {
		hit = 1
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO performance_summary (user_id, topic, difficulty, total_sessions, total_questions, total_correct, avg_score)
		VALUES ($1, $2, $3, 0, 1, $4::int, $4::int * 100.0)
		ON CONFLICT (user_id, topic) DO UPDATE
		SET total_questions = performance_summary.total_questions + 1,
			total_correct = performance_summary.total_correct + $4::int,
			avg_score = (performance_summary.total_correct + $4::int) * 100.0 / (performance_summary.total_questions + 1),
			last_updated = NOW()`,
		userID, topic, difficulty, hit)
	return err
}

// RecordSession counts a finished quiz towards the topic's session total.
func (r *PerformanceRepo) RecordSession(ctx context.Context, userID, topic string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE performance_summary
		SET total_sessions = total_sessions + 1, last_updated = NOW()
		WHERE user_id = $1 AND topic = $2`,
		userID, topic)
	return err
}

func (r *PerformanceRepo) ListByUser(ctx context.Context, userID string) ([]models.PerformanceSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, topic, difficulty, total_sessions, total_questions, total_correct, avg_score, last_updated
		FROM performance_summary
		WHERE user_id = $1
		ORDER BY last_updated DESC`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PerformanceSummary, error) {
		var p models.PerformanceSummary
		err := row.Scan(&p.ID, &p.UserID, &p.Topic, &p.Difficulty, &p.TotalSessions,
			&p.TotalQuestions, &p.TotalCorrect, &p.AvgScore, &p.LastUpdated)
		return p, err
	})
}
