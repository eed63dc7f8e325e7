package tabstate

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	id "opsdash/pkg/domain"
)

// RedisStore shares markers across gateway replicas. Keys carry a TTL so an
// abandoned tab cannot leave a recovery flag armed forever.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a marker store over an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) set(ctx context.Context, key string) error {
	// Key existence is the marker; the value is irrelevant.
	return s.client.Set(ctx, key, "1", DefaultTTL).Err()
}

func (s *RedisStore) get(ctx context.Context, key string) (bool, error) {
	_, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisStore) SetRecovery(ctx context.Context, ctxID id.ContextID) error {
	return s.set(ctx, recoveryKey(ctxID))
}

func (s *RedisStore) InRecovery(ctx context.Context, ctxID id.ContextID) (bool, error) {
	return s.get(ctx, recoveryKey(ctxID))
}

func (s *RedisStore) ClearRecovery(ctx context.Context, ctxID id.ContextID) error {
	return s.client.Del(ctx, recoveryKey(ctxID)).Err()
}

func (s *RedisStore) SetBackupCodeVerified(ctx context.Context, ctxID id.ContextID) error {
	return s.set(ctx, backupCodeKey(ctxID))
}

func (s *RedisStore) BackupCodeVerified(ctx context.Context, ctxID id.ContextID) (bool, error) {
	return s.get(ctx, backupCodeKey(ctxID))
}

func (s *RedisStore) ConsumeBackupCode(ctx context.Context, ctxID id.ContextID) error {
	return s.client.Del(ctx, backupCodeKey(ctxID)).Err()
}
