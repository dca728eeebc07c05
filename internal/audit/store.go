// Package audit provides durable, append-only persistence for
// transmission records. The aggregate log is line-delimited JSON and is
// never rewritten; per-record detail files allow retrieval of a single
// record without replaying the log; summaries are recomputed from
// persisted entries on demand, never from running counters.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/verdigris-botanica/egress/internal/tracker"
	"github.com/verdigris-botanica/egress/internal/types"
)

const (
	// AggregateLogName is the file name of the append-only JSONL log.
	AggregateLogName = "transmission_log.jsonl"

	// SummaryFileName is the regenerable summary file.
	SummaryFileName = "summary.json"
)

// LogEntry is a flattened, serialized view of a transmission record at
// a point in time. Entries are never edited or deleted once appended.
type LogEntry struct {
	LogTimestamp time.Time                  `json:"log_timestamp"`
	Record       tracker.TransmissionRecord `json:"record"`
}

// Store is the append-only persistence contract for transmission
// records. Implementations must guarantee line-level append atomicity:
// a concurrent reader observes either a full entry or none of it.
type Store interface {
	// Append serializes the record's current state as one log entry.
	Append(record tracker.TransmissionRecord) error

	// WriteDetail writes a self-contained file for the record, keyed by
	// its identifier, for retrieval without replaying the aggregate log.
	WriteDetail(record tracker.TransmissionRecord) error

	// Summarize recomputes the aggregate summary from persisted entries.
	Summarize() (Summary, error)

	// Close flushes and releases the underlying storage.
	Close() error
}

// FileStore implements Store over a log directory. The aggregate log is
// opened with O_APPEND so that each single write syscall lands as one
// contiguous line even with concurrent writers; a mutex additionally
// serializes appends from this process.
type FileStore struct {
	dir           string
	retentionDays int

	mu      sync.Mutex
	logFile *os.File
}

// NewFileStore opens (creating if needed) the log directory and the
// aggregate log file. retentionDays is labeling only: records older
// than the horizon become eligible for archival by an operator process,
// but the store itself never deletes. A non-positive value means retain
// indefinitely.
func NewFileStore(dir string, retentionDays int) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, types.WrapRetryableError(types.PERSISTENCE_FAILED,
			"failed to create log directory", err)
	}

	path := filepath.Join(dir, AggregateLogName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, types.WrapRetryableError(types.PERSISTENCE_FAILED,
			"failed to open aggregate log", err)
	}

	if retentionDays < 0 {
		retentionDays = 0
	}

	return &FileStore{
		dir:           dir,
		retentionDays: retentionDays,
		logFile:       f,
	}, nil
}

// Dir returns the log directory path.
func (s *FileStore) Dir() string {
	return s.dir
}

// RetentionDays returns the configured retention horizon in days.
// Zero means retain indefinitely.
func (s *FileStore) RetentionDays() int {
	return s.retentionDays
}

// Append writes one JSON line for the record's current state. The line
// is marshaled fully before the single write call so the append is
// atomic at the line level.
func (s *FileStore) Append(record tracker.TransmissionRecord) error {
	entry := LogEntry{
		LogTimestamp: time.Now().UTC(),
		Record:       record,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return types.WrapError(types.PERSISTENCE_FAILED, "failed to serialize log entry", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logFile == nil {
		return types.NewError(types.PERSISTENCE_FAILED, "audit store is closed")
	}
	if _, err := s.logFile.Write(line); err != nil {
		return types.WrapRetryableError(types.PERSISTENCE_FAILED,
			"failed to append to aggregate log", err)
	}

	return nil
}

// WriteDetail writes the record as a standalone indented JSON file named
// transmission_<id>.json in the log directory.
func (s *FileStore) WriteDetail(record tracker.TransmissionRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return types.WrapError(types.PERSISTENCE_FAILED, "failed to serialize detail record", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("transmission_%s.json", record.ID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return types.WrapRetryableError(types.PERSISTENCE_FAILED,
			"failed to write detail record", err)
	}

	return nil
}

// ReadLog replays the aggregate log and returns all entries in append
// order.
func (s *FileStore) ReadLog() ([]LogEntry, error) {
	path := filepath.Join(s.dir, AggregateLogName)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []LogEntry{}, nil
		}
		return nil, types.WrapRetryableError(types.PERSISTENCE_FAILED,
			"failed to open aggregate log for replay", err)
	}
	defer f.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, types.WrapError(types.PERSISTENCE_FAILED,
				"corrupt entry in aggregate log", err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, types.WrapRetryableError(types.PERSISTENCE_FAILED,
			"failed to read aggregate log", err)
	}

	return entries, nil
}

// Summarize recomputes the summary by replaying the aggregate log and
// reducing each record to its most recently appended state.
func (s *FileStore) Summarize() (Summary, error) {
	entries, err := s.ReadLog()
	if err != nil {
		return Summary{}, err
	}
	return summarizeEntries(entries), nil
}

// WriteSummary regenerates the summary file from the aggregate log.
// The file can be deleted at any time and rebuilt from the log.
func (s *FileStore) WriteSummary() (Summary, error) {
	summary, err := s.Summarize()
	if err != nil {
		return Summary{}, err
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return Summary{}, types.WrapError(types.PERSISTENCE_FAILED,
			"failed to serialize summary", err)
	}

	path := filepath.Join(s.dir, SummaryFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return Summary{}, types.WrapRetryableError(types.PERSISTENCE_FAILED,
			"failed to write summary file", err)
	}

	return summary, nil
}

// ExportAudit writes a full compliance export (summary plus every
// record's latest state) to the given path.
func (s *FileStore) ExportAudit(path string) error {
	entries, err := s.ReadLog()
	if err != nil {
		return err
	}

	export := struct {
		ExportTimestamp time.Time                    `json:"export_timestamp"`
		Summary         Summary                      `json:"summary"`
		Records         []tracker.TransmissionRecord `json:"records"`
	}{
		ExportTimestamp: time.Now().UTC(),
		Summary:         summarizeEntries(entries),
		Records:         latestRecords(entries),
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return types.WrapError(types.PERSISTENCE_FAILED, "failed to serialize audit export", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return types.WrapRetryableError(types.PERSISTENCE_FAILED,
			"failed to write audit export", err)
	}

	return nil
}

// Close flushes and closes the aggregate log.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logFile == nil {
		return nil
	}
	err := s.logFile.Close()
	s.logFile = nil
	if err != nil {
		return types.WrapError(types.PERSISTENCE_FAILED, "failed to close aggregate log", err)
	}
	return nil
}
