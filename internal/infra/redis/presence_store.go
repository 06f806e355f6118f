package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"ttx-deepfake/internal/domain"
)

const presenceTimeout = 500 * time.Millisecond

// PresenceStore mirrors live connections into Redis hashes so liveness is
// visible outside the process:
//
//	HSET ttx:conn:{id} role ... connectedAt ... lastActivityAt ... user ...
//
// Each hash expires after ttl unless touched. Writes are best effort.
type PresenceStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPresenceStore(client *redis.Client, ttl time.Duration) *PresenceStore {
	return &PresenceStore{client: client, ttl: ttl}
}

func (p *PresenceStore) MarkOnline(info domain.ConnectionInfo) {
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()

	key := p.key(info.ID)
	pipe := p.client.TxPipeline()
	pipe.HSet(ctx, key,
		"role", string(info.Role),
		"connectedAt", info.ConnectedAt.UTC().Format(time.RFC3339Nano),
		"lastActivityAt", info.LastActivityAt.UTC().Format(time.RFC3339Nano),
		"user", info.UserEmail,
	)
	if p.ttl > 0 {
		pipe.Expire(ctx, key, p.ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func (p *PresenceStore) Touch(id domain.ConnectionID) {
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()

	key := p.key(id)
	pipe := p.client.TxPipeline()
	pipe.HSet(ctx, key, "lastActivityAt", time.Now().UTC().Format(time.RFC3339Nano))
	if p.ttl > 0 {
		pipe.Expire(ctx, key, p.ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func (p *PresenceStore) MarkOffline(id domain.ConnectionID) {
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	_ = p.client.Del(ctx, p.key(id)).Err()
}

// Online reports whether a presence record exists for id.
func (p *PresenceStore) Online(ctx context.Context, id domain.ConnectionID) (bool, error) {
	n, err := p.client.Exists(ctx, p.key(id)).Result()
	return n > 0, err
}

func (p *PresenceStore) key(id domain.ConnectionID) string {
	return "ttx:conn:" + string(id)
}
