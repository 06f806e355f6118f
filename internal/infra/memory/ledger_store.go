package memory

import (
	"sort"
	"sync"

	"ttx-deepfake/internal/app"
	"ttx-deepfake/internal/domain"
)

// LedgerStore is an in-memory implementation of app.LedgerStore. Ledgers are
// volatile by design and vanish with the process.
type LedgerStore struct {
	mu      sync.RWMutex
	ledgers map[domain.ConnectionID]*app.Ledger
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		ledgers: make(map[domain.ConnectionID]*app.Ledger),
	}
}

func (s *LedgerStore) GetOrCreate(id domain.ConnectionID) *app.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ledger, ok := s.ledgers[id]; ok {
		return ledger
	}
	ledger := app.NewLedger(id)
	s.ledgers[id] = ledger
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
	defer s.mu.Unlock()
	if _, ok := s.ledgers[id]; !ok {
		return false
	}
	delete(s.ledgers, id)
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
