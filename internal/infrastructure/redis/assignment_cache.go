package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ritual-service/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// AssignmentCache is a non-authoritative read cache of today's assignment.
// The postgres record stays the source of truth: every entry expires at the
// next UTC midnight and any cache failure degrades to a store read.
type AssignmentCache struct {
	client *redis.Client
	now    func() time.Time
}

// NewAssignmentCache creates an assignment cache on an existing client.
func NewAssignmentCache(client *redis.Client) *AssignmentCache {
	return &AssignmentCache{
		client: client,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (c *AssignmentCache) key(userID uuid.UUID, date string) string {
	return fmt.Sprintf("ritual:assignment:%s:%s", userID.String(), date)
}

// Get returns the cached assignment for a user and date, if present.
func (c *AssignmentCache) Get(ctx context.Context, userID uuid.UUID, date string) (*entity.DailyAssignment, bool) {
	data, err := c.client.Get(ctx, c.key(userID, date)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logrus.WithError(err).Warn("assignment cache read failed")
		}
		return nil, false
	}

	var assignment entity.DailyAssignment
	if err := json.Unmarshal(data, &assignment); err != nil {
		logrus.WithError(err).Warn("assignment cache entry corrupt, dropping")
		c.Invalidate(ctx, userID, date)
		return nil, false
	}
	return &assignment, true
}

// Set caches an assignment until the end of its calendar day.
func (c *AssignmentCache) Set(ctx context.Context, assignment *entity.DailyAssignment) {
	data, err := json.Marshal(assignment)
	if err != nil {
		logrus.WithError(err).Warn("failed to marshal assignment for cache")
		return
	}

	ttl := c.ttlForDate(assignment.Date)
	if ttl <= 0 {
		return
	}
	if err := c.client.Set(ctx, c.key(assignment.UserID, assignment.Date), data, ttl).Err(); err != nil {
		logrus.WithError(err).Warn("assignment cache write failed")
	}
}

// Invalidate drops the cached assignment for a user and date.
func (c *AssignmentCache) Invalidate(ctx context.Context, userID uuid.UUID, date string) {
	if err := c.client.Del(ctx, c.key(userID, date)).Err(); err != nil {
		logrus.WithError(err).Warn("assignment cache invalidation failed")
	}
}

// ttlForDate returns the time left until the assignment's date rolls over,
// after which the entry would be stale anyway.
func (c *AssignmentCache) ttlForDate(date string) time.Duration {
	day, err := entity.ParseDay(date)
	if err != nil {
		return 0
	}
	return day.AddDate(0, 0, 1).Sub(c.now())
}
