package handshake

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps token records in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (m *MemoryStore) Put(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[r.Token]; exists {
		return fmt.Errorf("token already stored")
	}
	m.records[r.Token] = r
	return nil
}

func (m *MemoryStore) Consume(_ context.Context, token string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[token]
	if !ok {
		return Record{}, ErrUnknownToken
	}
	delete(m.records, token)
	return r, nil
}

func (m *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for tok, r := range m.records {
		if r.Expired(now) {
			delete(m.records, tok)
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
