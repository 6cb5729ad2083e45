package feedback

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append adds records.
func (s *MemoryStore) Append(_ context.Context, records ...Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

// Stats aggregates all records by rule.
func (s *MemoryStore) Stats(_ context.Context) (map[string]RuleStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]RuleStats)
	for _, r := range s.records {
		st := out[r.RuleID]
		st.RuleID = r.RuleID
		st.Total++
		if r.Success {
			st.Successes++
		}
		out[r.RuleID] = st
	}
	return out, nil
}

// Records returns a copy of every record in append order.
func (s *MemoryStore) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record(nil), s.records...)
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
