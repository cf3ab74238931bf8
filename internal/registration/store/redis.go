package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"cornerstone/internal/platform/redis"
	id "cornerstone/pkg/domain"
	"cornerstone/pkg/platform/sentinel"
)

// RedisDraftStore keeps unfinished registration drafts with a TTL so an
// abandoned wizard session eventually evaporates. Completed registrations
// belong in the durable store, not here.
type RedisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDraftStore(client *redis.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{client: client, ttl: ttl}
}

func (s *RedisDraftStore) key(registrationID id.RegistrationID) string {
	return fmt.Sprintf("cornerstone:draft:%s", registrationID)
}

func (s *RedisDraftStore) Save(ctx context.Context, snap Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.client.Set(ctx, s.key(snap.RegistrationID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) Find(ctx context.Context, registrationID id.RegistrationID) (Snapshot, error) {
	b, err := s.client.Get(ctx, s.key(registrationID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Snapshot{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("find draft: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode draft: %w", err)
	}
	return snap, nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, registrationID id.RegistrationID) error {
	n, err := s.client.Del(ctx, s.key(registrationID)).Result()
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
