package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"quizbot/internal/models"
)

const pingTimeout = 2 * time.Second

type DBPinger interface {
	Ping(ctx context.Context) error
}

type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// SessionCounter is satisfied by both session registries.
type SessionCounter interface {
	Len() int
}

type HealthHandler struct {
	db    DBPinger
	redis RedisPinger
}

func NewHealthHandler(db DBPinger, redis RedisPinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Health pings Postgres and Redis and answers 503 if either is down.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	status := models.HealthStatus{Status: "ok", Postgres: "ok", Redis: "ok"}

	if err := h.db.Ping(ctx); err != nil {
		status.Status = "degraded"
		status.Postgres = err.Error()
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		status.Status = "degraded"
		status.Redis = err.Error()
	}

	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

type StatsHandler struct {
	quizzes SessionCounter
	studies SessionCounter
}

func NewStatsHandler(quizzes, studies SessionCounter) *StatsHandler {
	return &StatsHandler{quizzes: quizzes, studies: studies}
}

func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.SessionStats{
		ActiveQuizzes:       h.quizzes.Len(),
		ActiveStudySessions: h.studies.Len(),
	})
}

// NotFound answers unknown routes in the same error envelope as the rest of the API.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Route not found", r))
}
