package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizbot/internal/models"
)

type stubDB struct{ err error }

func (s stubDB) Ping(context.Context) error { return s.err }

type stubRedis struct{ err error }

func (s stubRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", s.err)
}

type stubCounter int

func (c stubCounter) Len() int { return int(c) }

// ─── Health Handler Tests ───

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		dbErr      error
		redisErr   error
		wantCode   int
		wantStatus string
	}{
		{"all up", nil, nil, http.StatusOK, "ok"},
		{"postgres down", errors.New("dial tcp: refused"), nil, http.StatusServiceUnavailable, "degraded"},
		{"redis down", nil, errors.New("i/o timeout"), http.StatusServiceUnavailable, "degraded"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthHandler(stubDB{tc.dbErr}, stubRedis{tc.redisErr})

			rr := httptest.NewRecorder()
			h.Health(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tc.wantCode, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var body models.HealthStatus
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tc.wantStatus, body.Status)
			if tc.dbErr != nil {
				assert.Equal(t, tc.dbErr.Error(), body.Postgres)
			} else {
				assert.Equal(t, "ok", body.Postgres)
			}
			if tc.redisErr != nil {
				assert.Equal(t, tc.redisErr.Error(), body.Redis)
			}
		})
	}
}

// ─── Stats Handler Tests ───

func TestStats(t *testing.T) {
	h := NewStatsHandler(stubCounter(3), stubCounter(1))

	rr := httptest.NewRecorder()
	h.Stats(rr, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body models.SessionStats
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, models.SessionStats{ActiveQuizzes: 3, ActiveStudySessions: 1}, body)
}

func TestNotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	req.Header.Set("X-Request-ID", "req-1")

	rr := httptest.NewRecorder()
	NotFound(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
	assert.Equal(t, "req-1", body.Error.RequestID)
}
