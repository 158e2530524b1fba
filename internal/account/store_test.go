package account

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return OpenStore(filepath.Join(t.TempDir(), "users.json"), bcrypt.MinCost, nil)
}

func TestRegisterAndVerify(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Register("alice", "s3cret", "s3cret"))
	assert.True(t, s.Exists("alice"))

	assert.NoError(t, s.Verify("alice", "s3cret"))
	assert.ErrorIs(t, s.Verify("alice", "wrong"), ErrWrongPassword)
	assert.ErrorIs(t, s.Verify("bob", "s3cret"), ErrUnknownUser)

	reloaded := OpenStore(s.path, bcrypt.MinCost, nil)
	assert.NoError(t, reloaded.Verify("alice", "s3cret"))
}

func TestRegisterErrors(t *testing.T) {
	s := newTestStore(t)

	assert.ErrorIs(t, s.Register("", "pw", "pw"), ErrEmptyFields)
	assert.ErrorIs(t, s.Register("   ", "pw", "pw"), ErrEmptyFields)
	assert.ErrorIs(t, s.Register("alice", "", ""), ErrEmptyFields)
	assert.ErrorIs(t, s.Register("alice", "pw", "other"), ErrPasswordMismatch)

	require.NoError(t, s.Register("alice", "pw", "pw"))
	assert.ErrorIs(t, s.Register("alice", "pw2", "pw2"), ErrUserExists)
}

func TestPasswordsNotStoredInPlaintext(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Register("alice", "s3cret", "s3cret"))

	data, err := os.ReadFile(s.path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "s3cret")
}

func TestLegacyPlaintextMigrated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"alice": "hunter2"}`), 0o600))

	s := OpenStore(path, bcrypt.MinCost, nil)
	assert.NoError(t, s.Verify("alice", "hunter2"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")

	var users map[string]User
	require.NoError(t, json.Unmarshal(data, &users))
	assert.NotEmpty(t, users["alice"].PasswordHash)
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))

	s := OpenStore(path, bcrypt.MinCost, nil)
	assert.ErrorIs(t, s.Verify("alice", "pw"), ErrUnknownUser)
}

func TestCorruptFileBackedUpBeforeRegister(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	original := []byte(`{"alice": {"password_hash": "$2a$04$trunc`)
	require.NoError(t, os.WriteFile(path, original, 0o600))

	s := OpenStore(path, bcrypt.MinCost, nil)
	require.NoError(t, s.Register("bob", "pw", "pw"))

	backup, err := os.ReadFile(path + ".corrupt")
	require.NoError(t, err)
	assert.Equal(t, original, backup)

	reopened := OpenStore(path, bcrypt.MinCost, nil)
	assert.NoError(t, reopened.Verify("bob", "pw"))
}
