package audit

import (
	"sync"
	"time"

	"github.com/verdigris-botanica/egress/internal/tracker"
	"github.com/verdigris-botanica/egress/internal/types"
)

// MemoryStore implements Store in memory. It exists so tests and
// dry-run invocations can exercise the full pipeline contract without
// touching the filesystem.
type MemoryStore struct {
	mu      sync.Mutex
	entries []LogEntry
	details map[types.ID]tracker.TransmissionRecord
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: []LogEntry{},
		details: make(map[types.ID]tracker.TransmissionRecord),
	}
}

// Append records the entry in memory.
func (s *MemoryStore) Append(record tracker.TransmissionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.NewError(types.PERSISTENCE_FAILED, "audit store is closed")
	}

	s.entries = append(s.entries, LogEntry{
		LogTimestamp: time.Now().UTC(),
		Record:       record,
	})
	return nil
}

// WriteDetail stores the record snapshot keyed by its identifier.
func (s *MemoryStore) WriteDetail(record tracker.TransmissionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.NewError(types.PERSISTENCE_FAILED, "audit store is closed")
	}

	s.details[record.ID] = record
	return nil
}

// Summarize aggregates the latest state of each appended record.
func (s *MemoryStore) Summarize() (Summary, error) {
	s.mu.Lock()
	entries := make([]LogEntry, len(s.entries))
	copy(entries, s.entries)
	s.mu.Unlock()

	return summarizeEntries(entries), nil
}

// Entries returns a copy of all appended entries in append order.
func (s *MemoryStore) Entries() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// EntriesFor returns the appended entries for one record in append order.
func (s *MemoryStore) EntriesFor(id types.ID) []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []LogEntry
	for _, e := range s.entries {
		if e.Record.ID == id {
			out = append(out, e)
		}
	}
	return out
}

// Detail returns the stored detail snapshot for a record, if present.
func (s *MemoryStore) Detail(id types.ID) (tracker.TransmissionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.details[id]
	return r, ok
}

// Close marks the store closed; further writes fail.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
