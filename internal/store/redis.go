package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/genie/internal/knowledge"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is where the knowledge base document lives.
const DefaultRedisKey = "genie:knowledge"

// RedisStore keeps the whole knowledge base document under a single key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to url (redis://...). An explicit password
// overrides the one in the URL.
func NewRedisStore(ctx context.Context, url, password, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStoreFromClient(client, key), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) ([]knowledge.Entity, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return knowledge.DefaultEntities(), nil
		}
		return nil, fmt.Errorf("failed to read knowledge base: %w", err)
	}
	return DecodeDocument(data)
}

func (s *RedisStore) Save(ctx context.Context, entities []knowledge.Entity) error {
	data, err := EncodeDocument(entities)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write knowledge base: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
