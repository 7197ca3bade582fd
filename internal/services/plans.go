package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quizbot/internal/models"
)

// PendingPlanTTL is how long a proposed study plan waits for Start, Refine or Cancel.
const PendingPlanTTL = 5 * time.Minute

var ErrPlanExpired = errors.New("study plan expired")

// KeyValueStore is the subset of *redis.Client the plan cache needs.
type KeyValueStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// PendingPlan is a generated plan shown to a user but not started yet.
type PendingPlan struct {
	ID        uuid.UUID        `json:"id"`
	UserID    string           `json:"user_id"`
	ChannelID string           `json:"channel_id"`
	Prompt    string           `json:"prompt"`
	Plan      models.StudyPlan `json:"plan"`
}

type PlanCache struct {
	redis KeyValueStore
	ttl   time.Duration
}

func NewPlanCache(client KeyValueStore) *PlanCache {
	return &PlanCache{redis: client, ttl: PendingPlanTTL}
}

func planKey(id uuid.UUID) string {
	return "study_plan:" + id.String()
}

// Put parks p under a fresh id and returns it.
func (c *PlanCache) Put(ctx context.Context, p PendingPlan) (uuid.UUID, error) {
	p.ID = uuid.New()
	data, err := json.Marshal(p)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode plan: %w", err)
	}
	if err := c.redis.Set(ctx, planKey(p.ID), data, c.ttl).Err(); err != nil {
		return uuid.Nil, fmt.Errorf("store plan: %w", err)
	}
	return p.ID, nil
}

// Get returns ErrPlanExpired once the TTL has lapsed or the plan was taken.
func (c *PlanCache) Get(ctx context.Context, id uuid.UUID) (*PendingPlan, error) {
	data, err := c.redis.Get(ctx, planKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPlanExpired
	}
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}

	var p PendingPlan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &p, nil
}

func (c *PlanCache) Delete(ctx context.Context, id uuid.UUID) error {
	return c.redis.Del(ctx, planKey(id)).Err()
}
