package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quizbot/internal/models"
)

type StudySessionRepo struct {
	pool *pgxpool.Pool
}

func NewStudySessionRepo(pool *pgxpool.Pool) *StudySessionRepo {
	return &StudySessionRepo{pool: pool}
}

// CreateStudySession stores the session and one study_intervals row per plan
// entry in a single transaction.
func (r *StudySessionRepo) CreateStudySession(ctx context.Context, id uuid.UUID, userID, topic string, plan models.StudyPlan) error {
	total := 0
	for _, s := range plan.Sessions {
		total += s.Duration
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO study_sessions (id, user_id, topic, total_duration, state, description)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, userID, topic, total, models.StudyStateActive, plan.Description,
	); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, s := range plan.Sessions {
		batch.Queue(`
			INSERT INTO study_intervals (session_id, sequence, duration_minutes, break_duration, focus)
			VALUES ($1, $2, $3, $4, $5)`,
			id, i+1, s.Duration, s.Break, s.Focus)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UpdateStudySessionState sets the state and, when completed is non-nil,
// the completed interval count.
func (r *StudySessionRepo) UpdateStudySessionState(ctx context.Context, id uuid.UUID, state models.StudySessionState, completed *int) error {
	// A finished session is never moved back to a running state.
	guard := ""
	if !state.Terminal() {
		guard = ` AND state NOT IN ('completed', 'cancelled')`
	}
	if completed == nil {
		_, err := r.pool.Exec(ctx, `UPDATE study_sessions SET state = $2 WHERE id = $1`+guard, id, state)
		return err
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE study_sessions
		SET state = $2, completed_intervals = $3, current_interval = $3
		WHERE id = $1`+guard,
		id, state, *completed)
	return err
}

func (r *StudySessionRepo) SaveStudySummary(ctx context.Context, id uuid.UUID, summary string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO study_summaries (session_id, summary) VALUES ($1, $2)`, id, summary)
	return err
}

const studySessionColumns = `s.id, s.user_id, s.topic, s.total_duration, s.state, s.start_time,
	s.completed_intervals, s.current_interval, s.description, s.created_at`

func scanStudySession(row pgx.Row) (*models.StudySessionRecord, error) {
	s := &models.StudySessionRecord{}
	err := row.Scan(&s.ID, &s.UserID, &s.Topic, &s.TotalDuration, &s.State, &s.StartTime,
		&s.CompletedIntervals, &s.CurrentInterval, &s.Description, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// History returns the user's latest sessions, newest first, with intervals
// in sequence order and the most recent summary.
func (r *StudySessionRepo) History(ctx context.Context, userID string, limit int) ([]models.StudySessionRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+studySessionColumns+`,
			(SELECT summary FROM study_summaries ss WHERE ss.session_id = s.id ORDER BY ss.created_at DESC LIMIT 1)
		FROM study_sessions s
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}

	sessions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.StudySessionRecord, error) {
		var s models.StudySessionRecord
		err := row.Scan(&s.ID, &s.UserID, &s.Topic, &s.TotalDuration, &s.State, &s.StartTime,
			&s.CompletedIntervals, &s.CurrentInterval, &s.Description, &s.CreatedAt, &s.Summary)
		return s, err
	})
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return sessions, nil
	}

	index := make(map[uuid.UUID]int, len(sessions))
	ids := make([]uuid.UUID, len(sessions))
	for i, s := range sessions {
		index[s.ID] = i
		ids[i] = s.ID
		sessions[i].Intervals = []models.StudyIntervalRecord{}
	}

	irows, err := r.pool.Query(ctx, `
		SELECT session_id, id, sequence, duration_minutes, break_duration, focus
		FROM study_intervals
		WHERE session_id = ANY($1)
		ORDER BY session_id, sequence`, ids)
	if err != nil {
		return nil, err
	}
	defer irows.Close()

	for irows.Next() {
		var sessionID uuid.UUID
		var iv models.StudyIntervalRecord
		if err := irows.Scan(&sessionID, &iv.ID, &iv.Sequence, &iv.DurationMinutes, &iv.BreakDuration, &iv.Focus); err != nil {
			return nil, err
		}
		s := &sessions[index[sessionID]]
		s.Intervals = append(s.Intervals, iv)
		s.ActualDuration += iv.DurationMinutes
	}
	return sessions, irows.Err()
}

// Active returns the user's running (active or resting) session, or nil.
func (r *StudySessionRepo) Active(ctx context.Context, userID string) (*models.StudySessionRecord, error) {
	s, err := scanStudySession(r.pool.QueryRow(ctx, `
		SELECT `+studySessionColumns+`
		FROM study_sessions s
		WHERE s.user_id = $1 AND s.state IN ('active', 'resting')
		ORDER BY s.created_at DESC
		LIMIT 1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// CancelStale marks sessions left running by a previous process as
// cancelled; their timers did not survive the restart.
func (r *StudySessionRepo) CancelStale(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE study_sessions SET state = 'cancelled' WHERE state IN ('active', 'resting')`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
