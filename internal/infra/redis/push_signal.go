package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"commit-reflections/internal/domain/ports/repository"
)

var _ repository.PushSignalRepository = (*PushSignalRepo)(nil)

// PushSignalRepo keeps the last webhook push per repo in Redis. Keys expire
// on their own after the TTL; an expired key simply reads as "no signal",
// which is the answer the scheduler wants for old pushes anyway.
type PushSignalRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewPushSignalRepo(client RedisClient) *PushSignalRepo {
	return &PushSignalRepo{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (s *PushSignalRepo) signalKey(repoID string) string {
	return fmt.Sprintf("push_signal:%s", repoID)
}

func (s *PushSignalRepo) Record(ctx context.Context, repoID string, at time.Time) error {
	return s.client.Set(ctx, s.signalKey(repoID), at.UTC().Format(time.RFC3339), s.ttl)
}

func (s *PushSignalRepo) Last(ctx context.Context, repoID string) (*time.Time, error) {
	raw, err := s.client.Get(ctx, s.signalKey(repoID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // no live signal
		}
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("corrupt push signal for repo %s: %w", repoID, err)
	}
	return &t, nil
}

func (s *PushSignalRepo) Clear(ctx context.Context, repoID string) error {
	return s.client.Del(ctx, s.signalKey(repoID))
}
