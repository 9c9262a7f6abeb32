package artifact

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/maintsense/backend/pkg/logger"
	"github.com/maintsense/backend/pkg/retry"
)

// RedisStore keeps artifacts in Redis, for deployments where the service
// has no durable local disk. Network operations are retried with backoff.
type RedisStore struct {
	client *redis.Client
	retry  retry.Config
}

func NewRedisStore(host string, port int, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis artifact store initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &RedisStore{
		client: client,
		retry:  retry.DefaultConfig(),
	}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Put(ctx context.Context, path string, blob []byte) error {
	err := retry.Do(ctx, s.retry, func() error {
		return s.client.Set(ctx, artifactKey(path), blob, 0).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to store artifact in redis: %w", err)
	}

	logger.Debug("Artifact stored", zap.String("path", path), zap.Int("bytes", len(blob)))
	return nil
}

func (s *RedisStore) Get(ctx context.Context, path string) ([]byte, error) {
	var blob []byte
	var missing bool
	err := retry.Do(ctx, s.retry, func() error {
		data, err := s.client.Get(ctx, artifactKey(path)).Bytes()
		if errors.Is(err, redis.Nil) {
			missing = true
			return nil
		}
		if err != nil {
			return err
		}
		blob = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact from redis: %w", err)
	}
	if missing {
		return nil, ErrNotExist
	}
	return blob, nil
}

func artifactKey(path string) string {
	return "artifact:" + path
}
