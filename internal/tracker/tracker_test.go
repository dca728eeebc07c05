package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdigris-botanica/egress/internal/crypto"
	"github.com/verdigris-botanica/egress/internal/types"
)

func encryptedPackage(t *testing.T) *crypto.EncryptedPackage {
	t.Helper()
	key, err := crypto.NewFileKeyManager().GenerateKey()
	require.NoError(t, err)
	pkg, err := crypto.NewCodec().Encrypt([]byte("payload"), key)
	require.NoError(t, err)
	return pkg
}

func TestTracker_Create(t *testing.T) {
	tr := NewTracker()

	rec, err := tr.Create("security_assessment", "cisa-intake", types.ClassificationSensitive, 500)
	require.NoError(t, err)

	assert.NoError(t, rec.ID.Validate())
	assert.Equal(t, "security_assessment", rec.DataType)
	assert.Equal(t, "cisa-intake", rec.Destination)
	assert.Equal(t, types.ClassificationSensitive, rec.Classification)
	assert.Equal(t, int64(500), rec.SizeBytes)
	assert.Equal(t, types.StatusPending, rec.Status)
	require.Len(t, rec.Transitions, 1)
	assert.Equal(t, "transmission record created", rec.Transitions[0].Note)
}

func TestTracker_Create_ClassificationViolation(t *testing.T) {
	tests := []struct {
		name           string
		classification types.DataClassification
	}{
		{"confidential", types.ClassificationConfidential},
		{"sovereign", types.ClassificationSovereign},
		{"unknown fails closed", types.DataClassification("TOP_SECRET")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()

			_, err := tr.Create("security_assessment", "cisa-intake", tt.classification, 100)
			require.Error(t, err)
			assert.Equal(t, types.CLASSIFICATION_VIOLATION, types.CodeOf(err))

			// creation was rejected outright, no record exists
			assert.Empty(t, tr.Records())
		})
	}
}

func TestTracker_FullLifecycle(t *testing.T) {
	tr := NewTracker()
	pkg := encryptedPackage(t)

	rec, err := tr.Create("security_assessment", "cisa-intake", types.ClassificationSensitive, 500)
	require.NoError(t, err)

	require.NoError(t, tr.Advance(rec.ID, types.StatusValidated))
	require.NoError(t, tr.AttachIntegrity(rec.ID, crypto.HashPayload([]byte("payload")), pkg))
	require.NoError(t, tr.MarkTransmitted(rec.ID, "receipt-0001"))
	require.NoError(t, tr.Advance(rec.ID, types.StatusLogged))

	final, err := tr.Get(rec.ID)
	require.NoError(t, err)

	assert.Equal(t, types.StatusLogged, final.Status)
	assert.Equal(t, "receipt-0001", final.ReceiptID)
	require.NotNil(t, final.Encryption)
	assert.Equal(t, crypto.Algorithm, final.Encryption.Algorithm)
	assert.NotEmpty(t, final.Encryption.Nonce)
	assert.Equal(t, len(pkg.Ciphertext), final.Encryption.CiphertextLen)
	assert.NotEmpty(t, final.ContentHash)

	// transition history timestamps never go backwards
	require.GreaterOrEqual(t, len(final.Transitions), 5)
	for i := 1; i < len(final.Transitions); i++ {
		prev := final.Transitions[i-1].Timestamp
		curr := final.Transitions[i].Timestamp
		assert.False(t, curr.Before(prev), "transition %d predates transition %d", i, i-1)
	}
}

func TestTracker_Advance_IdempotentNoOp(t *testing.T) {
	tr := NewTracker()

	rec, err := tr.Create("security_assessment", "cisa-intake", types.ClassificationPublic, 100)
	require.NoError(t, err)

	require.NoError(t, tr.Advance(rec.ID, types.StatusValidated))

	before, err := tr.Get(rec.ID)
	require.NoError(t, err)

	// re-advancing to the current state succeeds without duplicating history
	require.NoError(t, tr.Advance(rec.ID, types.StatusValidated))

	after, err := tr.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, len(before.Transitions), len(after.Transitions))
	assert.Equal(t, types.StatusValidated, after.Status)

	// advancing to an already-passed state is also a no-op
	require.NoError(t, tr.AttachIntegrity(rec.ID, "hash", encryptedPackage(t)))
	require.NoError(t, tr.Advance(rec.ID, types.StatusValidated))
	again, err := tr.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusEncrypted, again.Status)
}

func TestTracker_Advance_IllegalTransition(t *testing.T) {
	tr := NewTracker()

	rec, err := tr.Create("security_assessment", "cisa-intake", types.ClassificationPublic, 100)
	require.NoError(t, err)

	err = tr.Advance(rec.ID, types.StatusTransmitted)
	require.Error(t, err)
	assert.Equal(t, types.ILLEGAL_TRANSITION, types.CodeOf(err))

	// record state is untouched by the rejected transition
	current, err := tr.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, current.Status)
}

func TestTracker_Advance_UnknownRecord(t *testing.T) {
	tr := NewTracker()
	err := tr.Advance(types.NewID(), types.StatusValidated)
	require.Error(t, err)
	assert.Equal(t, types.ILLEGAL_TRANSITION, types.CodeOf(err))
}

func TestTracker_AttachIntegrity_RequiresValidated(t *testing.T) {
	tr := NewTracker()

	rec, err := tr.Create("security_assessment", "cisa-intake", types.ClassificationPublic, 100)
	require.NoError(t, err)

	err = tr.AttachIntegrity(rec.ID, "hash", encryptedPackage(t))
	require.Error(t, err)
	assert.Equal(t, types.ILLEGAL_TRANSITION, types.CodeOf(err))
}

func TestTracker_AttachIntegrity_IdempotentWithSameHash(t *testing.T) {
	tr := NewTracker()
	pkg := encryptedPackage(t)

	rec, err := tr.Create("security_assessment", "cisa-intake", types.ClassificationPublic, 100)
	require.NoError(t, err)
	require.NoError(t, tr.Advance(rec.ID, types.StatusValidated))
	require.NoError(t, tr.AttachIntegrity(rec.ID, "hash", pkg))

	// same hash again: no-op
	require.NoError(t, tr.AttachIntegrity(rec.ID, "hash", pkg))

	// different hash: refused
	err = tr.AttachIntegrity(rec.ID, "other-hash", pkg)
	require.Error(t, err)
	assert.Equal(t, types.ILLEGAL_TRANSITION, types.CodeOf(err))
}

func TestTracker_MarkTransmitted_RequiresEncrypted(t *testing.T) {
	tr := NewTracker()

	rec, err := tr.Create("security_assessment", "cisa-intake", types.ClassificationPublic, 100)
	require.NoError(t, err)

	err = tr.MarkTransmitted(rec.ID, "receipt-0001")
	require.Error(t, err)
	assert.Equal(t, types.ILLEGAL_TRANSITION, types.CodeOf(err))
}

func TestTracker_MarkFailed(t *testing.T) {
	tr := NewTracker()

	rec, err := tr.Create("security_assessment", "cisa-intake", types.ClassificationPublic, 100)
	require.NoError(t, err)
	require.NoError(t, tr.Advance(rec.ID, types.StatusValidated))

	require.NoError(t, tr.MarkFailed(rec.ID, types.TRANSPORT_FAILED, "simulated outage"))

	failed, err := tr.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, failed.Status)
	assert.Equal(t, types.TRANSPORT_FAILED, failed.ErrorKind)
	assert.Empty(t, failed.ReceiptID)

	// idempotent once failed
	require.NoError(t, tr.MarkFailed(rec.ID, types.TRANSPORT_FAILED, "again"))

	// but a logged record cannot be failed
	rec2, err := tr.Create("security_assessment", "cisa-intake", types.ClassificationPublic, 100)
	require.NoError(t, err)
	require.NoError(t, tr.Advance(rec2.ID, types.StatusValidated))
	require.NoError(t, tr.AttachIntegrity(rec2.ID, "hash", encryptedPackage(t)))
	require.NoError(t, tr.MarkTransmitted(rec2.ID, "receipt"))
	require.NoError(t, tr.Advance(rec2.ID, types.StatusLogged))

	err = tr.MarkFailed(rec2.ID, types.TRANSPORT_FAILED, "too late")
	require.Error(t, err)
	assert.Equal(t, types.ILLEGAL_TRANSITION, types.CodeOf(err))
}

func TestTracker_SnapshotIsolation(t *testing.T) {
	tr := NewTracker()

	rec, err := tr.Create("security_assessment", "cisa-intake", types.ClassificationPublic, 100)
	require.NoError(t, err)

	// mutating a snapshot must not affect tracker state
	rec.Status = types.StatusTransmitted
	rec.Transitions[0].Note = "tampered"

	current, err := tr.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, current.Status)
	assert.Equal(t, "transmission record created", current.Transitions[0].Note)
}
