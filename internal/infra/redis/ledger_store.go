package redis

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"ttx-deepfake/internal/app"
	"ttx-deepfake/internal/domain"
)

// LedgerStore is a Redis-aware implementation of app.LedgerStore.
// Notes:
//   - Ledgers themselves stay in a local map; the reducer runs in process.
//   - Redis holds a marker per session so other instances and operators can
//     see which sessions this node is holding.
type LedgerStore struct {
	client *redis.Client
	ttl    time.Duration

	mu      sync.RWMutex
	ledgers map[domain.ConnectionID]*app.Ledger
}

func NewLedgerStore(client *redis.Client, ttl time.Duration) *LedgerStore {
	return &LedgerStore{
		client:  client,
		ttl:     ttl,
		ledgers: make(map[domain.ConnectionID]*app.Ledger),
	}
}

func (s *LedgerStore) GetOrCreate(id domain.ConnectionID) *app.Ledger {
	s.mu.Lock()
	ledger, ok := s.ledgers[id]
	if !ok {
		ledger = app.NewLedger(id)
		s.ledgers[id] = ledger
	}
	s.mu.Unlock()

	if !ok {
		ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
		defer cancel()
		// best-effort marker
		_ = s.client.Set(ctx, s.key(id), time.Now().UTC().Format(time.RFC3339), s.ttl).Err()
	}
	return ledger
}

func (s *LedgerStore) Get(id domain.ConnectionID) (*app.Ledger, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ledger, ok := s.ledgers[id]
	return ledger, ok
}

func (s *LedgerStore) Delete(id domain.ConnectionID) bool {
	s.mu.Lock()
	_, ok := s.ledgers[id]
	delete(s.ledgers, id)
	s.mu.Unlock()
	if !ok {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	_ = s.client.Del(ctx, s.key(id)).Err()
	return true
}

func (s *LedgerStore) Sessions() []domain.ConnectionID {
	s.mu.RLock()
	out := make([]domain.ConnectionID, 0, len(s.ledgers))
	for id := range s.ledgers {
		out = append(out, id)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *LedgerStore) key(id domain.ConnectionID) string {
	return "ttx:session:" + string(id)
}
