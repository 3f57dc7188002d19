package memory

import (
	"sort"
	"sync"

	"github.com/iho/creditledger/internal/domain"
)

// LedgerStore maps customer ids to their ledgers. Ledgers are created lazily
// and live until Clear is called.
//
// The store lock only guards the map. Each ledger serializes its own
// operations, so customers never wait on each other.
type LedgerStore struct {
	mu      sync.RWMutex
	ledgers map[string]*domain.Ledger
	opts    []domain.LedgerOption
}

// NewLedgerStore creates an empty store. opts are applied to every ledger it
// creates.
func NewLedgerStore(opts ...domain.LedgerOption) *LedgerStore {
	return &LedgerStore{
		ledgers: make(map[string]*domain.Ledger),
		opts:    opts,
	}
}

// GetOrCreate returns the ledger for customerID, registering an empty one on
// first use. Concurrent callers for the same new id all get the same ledger.
func (s *LedgerStore) GetOrCreate(customerID string) *domain.Ledger {
	s.mu.RLock()
	l, ok := s.ledgers[customerID]
	s.mu.RUnlock()
	if ok {
		return l
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if l, ok = s.ledgers[customerID]; ok {
		return l
	}

	l = domain.NewLedger(customerID, s.opts...)
	s.ledgers[customerID] = l
	return l
}

// Get returns the ledger for customerID without creating one.
func (s *LedgerStore) Get(customerID string) (*domain.Ledger, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.ledgers[customerID]
	return l, ok
}

// CustomerIDs returns the ids of all registered ledgers, sorted.
func (s *LedgerStore) CustomerIDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.ledgers))
	for id := range s.ledgers {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Len returns the number of registered ledgers.
func (s *LedgerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ledgers)
}

// Clear drops every ledger. Callers holding a ledger from before the call keep
// a detached copy that the store no longer returns.
func (s *LedgerStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers = make(map[string]*domain.Ledger)
}
