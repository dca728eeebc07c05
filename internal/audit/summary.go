package audit

import (
	"time"

	"github.com/verdigris-botanica/egress/internal/tracker"
	"github.com/verdigris-botanica/egress/internal/types"
)

// Summary is the aggregate view over persisted transmission records.
// It is always recomputed from the log, so it can be regenerated at any
// time and cannot drift from what was actually persisted.
type Summary struct {
	TotalRecords     int            `json:"total_records"`
	ByStatus         map[string]int `json:"status_breakdown"`
	ByClassification map[string]int `json:"classification_breakdown"`
	ByDestination    map[string]int `json:"destination_breakdown"`
	TransmittedBytes int64          `json:"transmitted_bytes"`
	FindingsShared   int            `json:"findings_shared"`
	FindingsRejected int            `json:"findings_rejected"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

// ComputeSummary aggregates the latest state of each record. Bytes are
// totaled only for records that actually reached transmission.
func ComputeSummary(records []tracker.TransmissionRecord) Summary {
	s := Summary{
		TotalRecords:     len(records),
		ByStatus:         make(map[string]int),
		ByClassification: make(map[string]int),
		ByDestination:    make(map[string]int),
		GeneratedAt:      time.Now().UTC(),
	}

	for _, r := range records {
		s.ByStatus[r.Status.String()]++
		s.ByClassification[r.Classification.String()]++
		s.ByDestination[r.Destination]++
		s.FindingsShared += r.FindingsShared
		s.FindingsRejected += r.FindingsHeld

		if r.Status != types.StatusFailed && r.Status.AtLeast(types.StatusTransmitted) {
			s.TransmittedBytes += r.SizeBytes
		}
	}

	return s
}

// latestRecords reduces log entries to each record's most recently
// appended state, preserving first-seen order.
func latestRecords(entries []LogEntry) []tracker.TransmissionRecord {
	index := make(map[types.ID]int)
	var out []tracker.TransmissionRecord

	for _, e := range entries {
		if i, seen := index[e.Record.ID]; seen {
			out[i] = e.Record
			continue
		}
		index[e.Record.ID] = len(out)
		out = append(out, e.Record)
	}

	return out
}

// summarizeEntries computes the summary over the latest state of every
// record appearing in the log.
func summarizeEntries(entries []LogEntry) Summary {
	return ComputeSummary(latestRecords(entries))
}
