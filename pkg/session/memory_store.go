package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store and Pruner with an in-process map. Records
// are copied on the way in and out, so callers never share buffers with it.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates a new in-memory record store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
	}
}

// Find returns a copy of the record for id
func (m *MemoryStore) Find(ctx context.Context, id string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	rec, exists := m.records[id]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrRecordNotFound
	}
	return rec.Clone(), nil
}

// Insert stores a new record
func (m *MemoryStore) Insert(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[rec.ID]; exists {
		return ErrRecordExists
	}

	rec.Version = 1
	m.records[rec.ID] = rec.Clone()
	return nil
}

// Update replaces the data if rec.Version matches the stored version
func (m *MemoryStore) Update(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, exists := m.records[rec.ID]
	if !exists {
		return ErrRecordNotFound
	}
	if stored.Version != rec.Version {
		return ErrVersionConflict
	}

	stored.Data = append([]byte(nil), rec.Data...)
	if rec.LastAccess.After(stored.LastAccess) {
		stored.LastAccess = rec.LastAccess
	}
	stored.Version++
	rec.Version = stored.Version
	rec.LastAccess = stored.LastAccess
	return nil
}

// Touch advances the last access time
func (m *MemoryStore) Touch(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, exists := m.records[id]
	if !exists {
		return ErrRecordNotFound
	}
	if at.After(stored.LastAccess) {
		stored.LastAccess = at
	}
	return nil
}

// Delete removes a record by id
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, id)
	return nil
}

// DeleteIdle removes records last accessed before the cutoff
func (m *MemoryStore) DeleteIdle(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, rec := range m.records {
		if rec.LastAccess.Before(before) {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored records
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
