package cooldown

import (
	"sync"
	"time"

	"github.com/theirongolddev/cgate/internal/trigger"
)

// MemStore is an in-memory Store used by tests and by callers that do not
// need durability across processes.
type MemStore struct {
	policy Policy

	mu    sync.Mutex
	fired map[string]time.Time
}

// NewMemStore returns an empty in-memory store with the given key policy.
func NewMemStore(policy Policy) *MemStore {
	return &MemStore{
		policy: policy,
		fired:  make(map[string]time.Time),
	}
}

// Policy implements Store.
func (s *MemStore) Policy() Policy {
	return s.policy
}

func (s *MemStore) key(sessionID string, t trigger.Type) string {
	if s.policy == PolicyPerTrigger {
		return sessionID + "--" + string(t)
	}
	return sessionID
}

// IsSuppressed implements Store.
func (s *MemStore) IsSuppressed(sessionID string, t trigger.Type, window time.Duration, now time.Time) bool {
	if window <= 0 {
		return false
	}

	s.mu.Lock()
	last, ok := s.fired[s.key(sessionID, t)]
	s.mu.Unlock()

	if !ok {
		return false
	}
	return now.Sub(last) < window
}

// RecordFire implements Store.
func (s *MemStore) RecordFire(sessionID string, t trigger.Type, now time.Time) error {
	s.mu.Lock()
	s.fired[s.key(sessionID, t)] = now
	s.mu.Unlock()
	return nil
}
