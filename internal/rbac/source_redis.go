package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultRedisKey holds the published policy document.
	DefaultRedisKey = "rbac:policy"
	// ReloadChannel announces that a new document was published.
	ReloadChannel = "rbac.reload"
)

// RedisSource reads a JSON policy document published under a redis key.
type RedisSource struct {
	client *redis.Client
	key    string
}

// NewRedisSource wraps client. An empty key uses DefaultRedisKey.
func NewRedisSource(client *redis.Client, key string) *RedisSource {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisSource{client: client, key: key}
}

func (s *RedisSource) Name() string { return "redis" }

// Key returns the redis key the document lives under.
func (s *RedisSource) Key() string { return s.key }

// Fetch loads the document; a missing key is ErrNoPolicy.
func (s *RedisSource) Fetch(ctx context.Context) (Document, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("rbac: redis source: %w", ErrNoPolicy)
	}
	payload, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("rbac: redis key %s: %w", s.key, ErrNoPolicy)
	}
	if err != nil {
		return nil, fmt.Errorf("rbac: redis get policy: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("rbac: decode redis policy: %w", err)
	}
	return doc, nil
}

// Publish stores doc under the key and notifies subscribers.
func (s *RedisSource) Publish(ctx context.Context, doc Document) error {
	if s == nil || s.client == nil {
		return nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("rbac: encode policy: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("rbac: redis set policy: %w", err)
	}
	if err := s.client.Publish(ctx, ReloadChannel, s.key).Err(); err != nil {
		return fmt.Errorf("rbac: redis publish reload: %w", err)
	}
	return nil
}

// ListenForReload reloads store whenever a reload notice arrives. The
// subscription lives until ctx is cancelled.
func ListenForReload(ctx context.Context, client *redis.Client, store *Store, logger *slog.Logger) error {
	if client == nil || store == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	pubsub := client.Subscribe(ctx, ReloadChannel)
	// Wait for the subscription to be confirmed so no notice is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("rbac: subscribe %s: %w", ReloadChannel, err)
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := store.Load(ctx); err != nil {
					logger.Warn("rbac reload from notice failed", slog.String("payload", msg.Payload), slog.Any("error", err))
				}
			}
		}
	}()
	return nil
}
