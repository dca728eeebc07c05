package tracker

import (
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/verdigris-botanica/egress/internal/crypto"
	"github.com/verdigris-botanica/egress/internal/policy"
	"github.com/verdigris-botanica/egress/internal/types"
)

// Tracker creates and mutates transmission records. Each in-flight
// record has its own mutex so concurrent pipelines for different
// records never contend on a global lock, while mutations for one
// record are fully serialized.
type Tracker struct {
	mu      sync.Mutex
	records map[types.ID]*TransmissionRecord
	locks   map[types.ID]*sync.Mutex
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		records: make(map[types.ID]*TransmissionRecord),
		locks:   make(map[types.ID]*sync.Mutex),
	}
}

// lockFor returns the per-record mutex, creating it if needed.
func (t *Tracker) lockFor(id types.ID) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[id]
	if !ok {
		l = &sync.Mutex{}
		t.locks[id] = l
	}
	return l
}

// get returns the live record for id, or an error if unknown.
func (t *Tracker) get(id types.ID) (*TransmissionRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.records[id]
	if !ok {
		return nil, types.NewError(types.ILLEGAL_TRANSITION,
			fmt.Sprintf("unknown transmission record: %s", id))
	}
	return r, nil
}

// Create opens a new transmission record in status pending. This is the
// second, independent classification enforcement point: even though the
// finding filter already removed disallowed content, the tracker refuses
// to open a record for a classification outside the allow-set, so a
// caller bypassing the filter still cannot produce an outbound record.
// Unknown classifications are rejected the same way (fail closed).
func (t *Tracker) Create(dataType, destination string, classification types.DataClassification, sizeBytes int64) (TransmissionRecord, error) {
	allowed, err := policy.IsTransmissible(classification)
	if err != nil {
		return TransmissionRecord{}, err
	}
	if !allowed {
		return TransmissionRecord{}, types.NewError(types.CLASSIFICATION_VIOLATION,
			fmt.Sprintf("classification %s is not permitted to leave the origin network", classification))
	}
	if dataType == "" {
		return TransmissionRecord{}, types.NewError(types.CLASSIFICATION_VIOLATION,
			"data type label cannot be empty")
	}

	r := &TransmissionRecord{
		ID:             types.NewID(),
		DataType:       dataType,
		Destination:    destination,
		Classification: classification,
		SizeBytes:      sizeBytes,
		Status:         types.StatusPending,
		CreatedAt:      time.Now().UTC(),
		Transitions: []TransitionEntry{{
			From:      types.StatusPending,
			To:        types.StatusPending,
			Timestamp: time.Now().UTC(),
			Note:      "transmission record created",
		}},
	}

	t.mu.Lock()
	t.records[r.ID] = r
	t.locks[r.ID] = &sync.Mutex{}
	t.mu.Unlock()

	return r.Snapshot(), nil
}

// Advance moves a record to the next status, validating the transition
// against the state machine. Advancing to a status the record has
// already reached is a no-op success rather than an error, so an
// at-least-once caller can safely re-invoke after a retry; the no-op
// does not duplicate the history entry.
func (t *Tracker) Advance(id types.ID, next types.TransmissionStatus) error {
	r, err := t.get(id)
	if err != nil {
		return err
	}

	l := t.lockFor(id)
	l.Lock()
	defer l.Unlock()

	if r.Status == next || (next != types.StatusFailed && r.Status.AtLeast(next)) {
		return nil
	}
	if !r.Status.CanTransitionTo(next) {
		return types.NewError(types.ILLEGAL_TRANSITION,
			fmt.Sprintf("illegal status transition %s -> %s for record %s", r.Status, next, id))
	}

	r.appendTransition(next, "")
	return nil
}

// AttachIntegrity records the content hash and encryption metadata and
// moves the record from validated to encrypted. It may only be called
// while the record is in status validated; calling it again once the
// record is already encrypted with identical integrity data is a no-op.
func (t *Tracker) AttachIntegrity(id types.ID, contentHash string, pkg *crypto.EncryptedPackage) error {
	r, err := t.get(id)
	if err != nil {
		return err
	}
	if pkg == nil {
		return types.NewError(types.ILLEGAL_TRANSITION, "encrypted package is required to attach integrity")
	}

	l := t.lockFor(id)
	l.Lock()
	defer l.Unlock()

	meta := &EncryptionMeta{
		Algorithm:     pkg.Algorithm,
		Nonce:         base64.StdEncoding.EncodeToString(pkg.Nonce),
		CiphertextLen: len(pkg.Ciphertext),
	}

	if r.Status.AtLeast(types.StatusEncrypted) {
		if r.ContentHash == contentHash {
			return nil
		}
		return types.NewError(types.ILLEGAL_TRANSITION,
			fmt.Sprintf("integrity already attached to record %s with a different hash", id))
	}
	if r.Status != types.StatusValidated {
		return types.NewError(types.ILLEGAL_TRANSITION,
			fmt.Sprintf("cannot attach integrity in status %s, record must be validated", r.Status))
	}

	r.ContentHash = contentHash
	r.Encryption = meta
	r.appendTransition(types.StatusEncrypted,
		fmt.Sprintf("payload encrypted with %s", pkg.Algorithm))
	return nil
}

// MarkTransmitted attaches the transport receipt and moves the record
// from encrypted to transmitted. Re-invocation with the same receipt
// after the record is already transmitted is a no-op.
func (t *Tracker) MarkTransmitted(id types.ID, receiptID string) error {
	r, err := t.get(id)
	if err != nil {
		return err
	}

	l := t.lockFor(id)
	l.Lock()
	defer l.Unlock()

	if r.Status.AtLeast(types.StatusTransmitted) {
		if r.ReceiptID == receiptID {
			return nil
		}
		return types.NewError(types.ILLEGAL_TRANSITION,
			fmt.Sprintf("record %s already transmitted with a different receipt", id))
	}
	if r.Status != types.StatusEncrypted {
		return types.NewError(types.ILLEGAL_TRANSITION,
			fmt.Sprintf("cannot mark transmitted in status %s, record must be encrypted", r.Status))
	}

	r.ReceiptID = receiptID
	r.appendTransition(types.StatusTransmitted,
		fmt.Sprintf("accepted by destination, receipt %s", receiptID))
	return nil
}

// MarkFailed drives a record to the terminal failed status with a
// machine-readable error kind. It is legal from any non-terminal state
// and idempotent once the record is failed.
func (t *Tracker) MarkFailed(id types.ID, kind types.ErrorCode, note string) error {
	r, err := t.get(id)
	if err != nil {
		return err
	}

	l := t.lockFor(id)
	l.Lock()
	defer l.Unlock()

	if r.Status == types.StatusFailed {
		return nil
	}
	if r.Status.IsTerminal() {
		return types.NewError(types.ILLEGAL_TRANSITION,
			fmt.Sprintf("cannot fail record %s in terminal status %s", id, r.Status))
	}

	r.ErrorKind = kind
	r.appendTransition(types.StatusFailed, note)
	return nil
}

// SetFindingCounts records how many findings were shared and rejected
// for transparency in the audit trail. Rejected finding content is
// never stored, only the count.
func (t *Tracker) SetFindingCounts(id types.ID, shared, rejected int) error {
	r, err := t.get(id)
	if err != nil {
		return err
	}

	l := t.lockFor(id)
	l.Lock()
	defer l.Unlock()

	r.FindingsShared = shared
	r.FindingsHeld = rejected
	return nil
}

// Get returns a snapshot of the record, or an error if unknown.
func (t *Tracker) Get(id types.ID) (TransmissionRecord, error) {
	r, err := t.get(id)
	if err != nil {
		return TransmissionRecord{}, err
	}

	l := t.lockFor(id)
	l.Lock()
	defer l.Unlock()
	return r.Snapshot(), nil
}

// Records returns snapshots of all tracked records.
func (t *Tracker) Records() []TransmissionRecord {
	t.mu.Lock()
	ids := make([]types.ID, 0, len(t.records))
	for id := range t.records {
		ids = append(ids, id)
	}
	t.mu.Unlock()

	out := make([]TransmissionRecord, 0, len(ids))
	for _, id := range ids {
		if snap, err := t.Get(id); err == nil {
			out = append(out, snap)
		}
	}
	return out
}
