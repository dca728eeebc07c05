// Package tracker owns the lifecycle of transmission records, the unit
// of audit accountability for every outbound data movement. All state
// mutations flow through the Tracker, which validates each transition
// against the status machine and serializes mutations per record.
package tracker

import (
	"time"

	"github.com/verdigris-botanica/egress/internal/types"
)

// TransitionEntry is one timestamped step in a record's audit trail.
type TransitionEntry struct {
	From      types.TransmissionStatus `json:"from"`
	To        types.TransmissionStatus `json:"to"`
	Timestamp time.Time                `json:"timestamp"`
	Note      string                   `json:"note,omitempty"`
}

// EncryptionMeta describes how a payload was protected. It carries
// enough for verification (algorithm, nonce, ciphertext length) and
// never the key.
type EncryptionMeta struct {
	Algorithm     string `json:"algorithm"`
	Nonce         string `json:"nonce"` // base64
	CiphertextLen int    `json:"ciphertext_len"`
}

// TransmissionRecord tracks one outbound data movement from creation to
// terminal state. It is exclusively owned by the Tracker; downstream
// consumers receive snapshots and never mutate it.
type TransmissionRecord struct {
	ID             types.ID                 `json:"record_id"`
	DataType       string                   `json:"data_type"`
	Destination    string                   `json:"destination"`
	Classification types.DataClassification `json:"classification"`
	SizeBytes      int64                    `json:"data_size_bytes"`
	ContentHash    string                   `json:"content_hash,omitempty"`
	Encryption     *EncryptionMeta          `json:"encryption,omitempty"`
	Status         types.TransmissionStatus `json:"status"`
	ReceiptID      string                   `json:"receipt_id,omitempty"`
	ErrorKind      types.ErrorCode          `json:"error_kind,omitempty"`
	FindingsShared int                      `json:"findings_shared"`
	FindingsHeld   int                      `json:"findings_rejected"`
	CreatedAt      time.Time                `json:"created_at"`
	Transitions    []TransitionEntry        `json:"transitions"`
}

// Snapshot returns a deep copy of the record safe to hand to consumers
// outside the tracker's locking discipline.
func (r *TransmissionRecord) Snapshot() TransmissionRecord {
	copied := *r
	copied.Transitions = make([]TransitionEntry, len(r.Transitions))
	copy(copied.Transitions, r.Transitions)
	if r.Encryption != nil {
		meta := *r.Encryption
		copied.Encryption = &meta
	}
	return copied
}

// appendTransition records a status change in the audit trail. Callers
// must hold the record's lock.
func (r *TransmissionRecord) appendTransition(to types.TransmissionStatus, note string) {
	r.Transitions = append(r.Transitions, TransitionEntry{
		From:      r.Status,
		To:        to,
		Timestamp: time.Now().UTC(),
		Note:      note,
	})
	r.Status = to
}
