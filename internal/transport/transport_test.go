package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdigris-botanica/egress/internal/crypto"
	"github.com/verdigris-botanica/egress/internal/types"
)

func encrypted(t *testing.T) *crypto.EncryptedPackage {
	t.Helper()
	key, err := crypto.NewFileKeyManager().GenerateKey()
	require.NoError(t, err)
	pkg, err := crypto.NewCodec().Encrypt([]byte("payload"), key)
	require.NoError(t, err)
	return pkg
}

func TestSimulated_Send(t *testing.T) {
	tp := NewSimulated()
	pkg := encrypted(t)

	receipt, err := tp.Send(context.Background(), pkg, "cisa-intake")
	require.NoError(t, err)
	assert.Len(t, receipt, 16)

	// same ciphertext yields the same receipt, so retries are observable
	again, err := tp.Send(context.Background(), pkg, "cisa-intake")
	require.NoError(t, err)
	assert.Equal(t, receipt, again)
}

func TestSimulated_Send_Failure(t *testing.T) {
	tp := &Simulated{FailWith: errors.New("intake endpoint unavailable")}

	_, err := tp.Send(context.Background(), encrypted(t), "cisa-intake")
	require.Error(t, err)
	assert.Equal(t, types.TRANSPORT_FAILED, types.CodeOf(err))
	assert.True(t, types.IsRetryable(err))
}

func TestSimulated_Send_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSimulated().Send(ctx, encrypted(t), "cisa-intake")
	require.Error(t, err)
	assert.Equal(t, types.TRANSPORT_FAILED, types.CodeOf(err))
	require.ErrorIs(t, err, context.Canceled)
}

func TestSimulated_Send_EmptyPackage(t *testing.T) {
	_, err := NewSimulated().Send(context.Background(), nil, "cisa-intake")
	require.Error(t, err)
	assert.Equal(t, types.TRANSPORT_FAILED, types.CodeOf(err))
}
