// Package store persists neighborhood records.
//
// A record is always written whole, replacing any previous record for the
// same (neighborhood, borough) key. The mongo subpackage holds the
// production adapter; Memory keeps records in process for dry runs and tests.
package store

import (
	"context"
	"sync"

	"github.com/poiesic/boroughs/core"
)

// RecordStore upserts neighborhood records.
type RecordStore interface {
	// SaveRecord replaces the record stored for record.Key, inserting it if
	// none exists.
	SaveRecord(ctx context.Context, record *core.NeighborhoodRecord) error

	// Close releases the store's connection.
	Close(ctx context.Context) error
}

// Memory is an in-process RecordStore.
type Memory struct {
	mu      sync.Mutex
	records map[core.NeighborhoodKey]map[string]any
	writes  int
}

var _ RecordStore = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[core.NeighborhoodKey]map[string]any)}
}

// SaveRecord stores the record's document under its key.
func (m *Memory) SaveRecord(ctx context.Context, record *core.NeighborhoodRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := core.ValidateKey(record.Key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.Key] = record.Document()
	m.writes++
	return nil
}

// Document returns the stored document for key.
func (m *Memory) Document(key core.NeighborhoodKey) (map[string]any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.records[key]
	return doc, ok
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Writes returns the number of SaveRecord calls that succeeded.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Close is a no-op.
func (m *Memory) Close(context.Context) error {
	return nil
}
