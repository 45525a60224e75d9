package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// LiveMarker records which presentations are live:
// SET deck:live:{deckID} 1
// Markers are best-effort liveness hints; a multi-instance deployment would
// pair them with a pub/sub projector to fan updates across processes.
type LiveMarker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLiveMarker(client *redis.Client, ttl time.Duration) *LiveMarker {
	return &LiveMarker{client: client, ttl: ttl}
}

func (m *LiveMarker) MarkLive(ctx context.Context, presentationID string) {
	_ = m.client.Set(ctx, m.key(presentationID), "1", m.ttl).Err()
}

func (m *LiveMarker) ClearLive(ctx context.Context, presentationID string) {
	_ = m.client.Del(ctx, m.key(presentationID)).Err()
}

func (m *LiveMarker) key(presentationID string) string {
	return "deck:live:" + presentationID
}
