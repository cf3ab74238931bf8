package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"cornerstone/internal/platform/redis"
)

// RefreshMarker tracks catalog freshness per event in Redis. Ingesting a
// catalog marks the event fresh for a TTL; once the key expires the caller
// should re-fetch availability. Without Redis configured every check reports
// stale, which degrades to fetching on each registration start.
type RefreshMarker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRefreshMarker(client *redis.Client, ttl time.Duration) *RefreshMarker {
	return &RefreshMarker{client: client, ttl: ttl}
}

func (m *RefreshMarker) key(eventID string) string {
	return fmt.Sprintf("cornerstone:catalog:fresh:%s", eventID)
}

// MarkFresh records that the event's catalog was just ingested.
func (m *RefreshMarker) MarkFresh(ctx context.Context, eventID string) error {
	if m == nil || m.client == nil {
		return nil
	}
	return m.client.Set(ctx, m.key(eventID), time.Now().UTC().Format(time.RFC3339), m.ttl).Err()
}

// IsStale reports whether the event's catalog should be re-fetched.
func (m *RefreshMarker) IsStale(ctx context.Context, eventID string) (bool, error) {
	if m == nil || m.client == nil {
		return true, nil
	}
	err := m.client.Get(ctx, m.key(eventID)).Err()
	if errors.Is(err, goredis.Nil) {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	return false, nil
}
