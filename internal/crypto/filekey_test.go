package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileKeyManager_GenerateKey(t *testing.T) {
	m := NewFileKeyManager()

	first, err := m.GenerateKey()
	require.NoError(t, err)
	assert.Len(t, first, KeySize)

	second, err := m.GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestFileKeyManager_SaveAndLoad(t *testing.T) {
	m := NewFileKeyManager()
	path := filepath.Join(t.TempDir(), "keys", "transmission.key")

	key, err := m.GenerateKey()
	require.NoError(t, err)

	require.NoError(t, m.SaveKey(key, path))
	assert.True(t, m.KeyExists(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(KeyFilePermission), info.Mode().Perm())

	loaded, err := m.LoadKey(path)
	require.NoError(t, err)
	assert.Equal(t, key, loaded)
}

func TestFileKeyManager_LoadKey_InsecurePermissions(t *testing.T) {
	m := NewFileKeyManager()
	path := filepath.Join(t.TempDir(), "transmission.key")

	key, err := m.GenerateKey()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, key, 0644))

	_, err = m.LoadKey(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure permissions")
}

func TestFileKeyManager_LoadKey_Missing(t *testing.T) {
	m := NewFileKeyManager()
	_, err := m.LoadKey(filepath.Join(t.TempDir(), "absent.key"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestFileKeyManager_SaveKey_WrongSize(t *testing.T) {
	m := NewFileKeyManager()
	err := m.SaveKey([]byte("too short"), filepath.Join(t.TempDir(), "bad.key"))
	require.Error(t, err)
}

func TestDeriveKey_Deterministic(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)
	require.Len(t, salt, SaltSize)

	first, err := DeriveKey([]byte("operator passphrase"), salt)
	require.NoError(t, err)
	assert.Len(t, first, KeySize)

	second, err := DeriveKey([]byte("operator passphrase"), salt)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := DeriveKey([]byte("different passphrase"), salt)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestDeriveKey_InvalidInputs(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	_, err = DeriveKey(nil, salt)
	assert.Error(t, err)

	_, err = DeriveKey([]byte("passphrase"), []byte("short salt"))
	assert.Error(t, err)
}
