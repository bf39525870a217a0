// Package redisstore persists groups as a single JSON value in Redis, so
// several server instances can share one registry.
//
// The registry writes the whole set on every mutation; the store therefore
// needs only GET and SET on one key.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/pipegraph/pkg/group"
)

// DefaultKey is the Redis key used when Config.Key is empty.
const DefaultKey = "pipegraph:groups"

// Config describes the Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// client is the subset of the go-redis client the store uses.
type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// Store implements group.Store on top of Redis.
type Store struct {
	client client
	key    string
}

// New connects to Redis and pings it once.
func New(ctx context.Context, cfg Config) (*Store, error) {
	c := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return newStore(c, cfg.Key), nil
}

func newStore(c client, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{client: c, key: key}
}

// Load reads the stored groups. A missing key means no groups.
func (s *Store) Load(ctx context.Context) ([]group.Group, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	var groups []group.Group
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("parse groups: %w", err)
	}
	return groups, nil
}

// Save replaces the stored groups.
func (s *Store) Save(ctx context.Context, groups []group.Group) error {
	if groups == nil {
		groups = []group.Group{}
	}
	data, err := json.Marshal(groups)
	if err != nil {
		return fmt.Errorf("marshal groups: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ group.Store = (*Store)(nil)
