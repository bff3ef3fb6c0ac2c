// Package inmemory provides in-memory sample storage.
package inmemory

import (
	"context"
	"errors"
	"sync"
	"time"

	"observe/internal/observe/core"
)

// InMemorySampleStore stores sample records in memory.
type InMemorySampleStore struct {
	mu      sync.Mutex
	records map[int64]*core.SampleRecord
	lastID  int64
	closed  bool
	now     func() time.Time
}

// NewInMemorySampleStore constructs an in-memory sample store.
func NewInMemorySampleStore(now func() time.Time) *InMemorySampleStore {
	if now == nil {
		now = time.Now
	}
	return &InMemorySampleStore{
		records: make(map[int64]*core.SampleRecord),
		now:     now,
	}
}

// Count returns the number of stored records.
func (db *InMemorySampleStore) Count(ctx context.Context) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return 0, errStoreClosed
	}
	return int64(len(db.records)), nil
}

// Create inserts a record with the next identifier.
func (db *InMemorySampleStore) Create(ctx context.Context, rec *core.NewSampleRecord) (*core.SampleRecord, error) {
	if rec == nil {
		return nil, core.ErrInvalidInput
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil, errStoreClosed
	}
	db.lastID++
	stored := &core.SampleRecord{
		ID:        db.lastID,
		Name:      rec.Name,
		Value:     rec.Value,
		UpdatedAt: db.now().UTC(),
	}
	db.records[stored.ID] = stored
	return cloneRecord(stored), nil
}

// Get fetches a record by identifier.
func (db *InMemorySampleStore) Get(ctx context.Context, id int64) (*core.SampleRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil, errStoreClosed
	}
	rec := db.records[id]
	if rec == nil {
		return nil, core.ErrNotFound
	}
	return cloneRecord(rec), nil
}

// Close marks the store unusable.
func (db *InMemorySampleStore) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.closed = true
	return nil
}

var errStoreClosed = errors.New("sample store is closed")

func cloneRecord(rec *core.SampleRecord) *core.SampleRecord {
	if rec == nil {
		return nil
	}
	c := *rec
	return &c
}
