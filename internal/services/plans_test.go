package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizbot/internal/models"
)

type memoryKV struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryKV) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryKV) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memoryKV) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestPlanCacheRoundTrip(t *testing.T) {
	kv := newMemoryKV()
	cache := NewPlanCache(kv)
	ctx := context.Background()

	plan := models.StudyPlan{
		Topic:                "Go",
		TotalDurationMinutes: 55,
		Sessions:             []models.PlanSession{{Duration: 45, Break: 10, Focus: "Syntax"}},
	}
	id, err := cache.Put(ctx, PendingPlan{UserID: "u1", ChannelID: "c1", Prompt: "learn go", Plan: plan})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, PendingPlanTTL, kv.ttls[planKey(id)])

	got, err := cache.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, plan, got.Plan)

	require.NoError(t, cache.Delete(ctx, id))
	_, err = cache.Get(ctx, id)
	assert.ErrorIs(t, err, ErrPlanExpired)
}

func TestPlanCacheUnknownID(t *testing.T) {
	cache := NewPlanCache(newMemoryKV())
	_, err := cache.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrPlanExpired)
}
