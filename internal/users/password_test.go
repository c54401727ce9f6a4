package users

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/notevault/internal/events"
)

var testArgon = ArgonParams{Memory: 64, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword(testArgon, "abc123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "argon2id$m=64,t=1,p=1$"))

	other, err := HashPassword(testArgon, "abc123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts differ")

	ok, err := VerifyPassword("abc123", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("abc124", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordMalformed(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"wrong algorithm", "bcrypt$xyz"},
		{"missing parts", "argon2id$m=64,t=1,p=1$c2FsdA"},
		{"bad params", "argon2id$m=x,t=1,p=1$c2FsdA$a2V5"},
		{"zero time", "argon2id$m=64,t=0,p=1$c2FsdA$a2V5"},
		{"bad salt", "argon2id$m=64,t=1,p=1$!!!$a2V5"},
		{"empty key", "argon2id$m=64,t=1,p=1$c2FsdA$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := VerifyPassword("pw", tt.encoded)
			assert.ErrorIs(t, err, ErrInvalidHash)
			assert.False(t, ok)
		})
	}
}

func TestPasswordScore(t *testing.T) {
	assert.Less(t, PasswordScore("password"), 2)
	assert.GreaterOrEqual(t, PasswordScore("correct-horse-battery-staple-91!"), 3)
}

func TestAuthenticateUnknownUserRunsVerifier(t *testing.T) {
	ctx := context.Background()
	dir, err := Open(filepath.Join(t.TempDir(), "users.db"), events.Discard(), WithArgonParams(testArgon))
	require.NoError(t, err)
	defer dir.Close()

	_, err = dir.Create(ctx, "alice", "abc123")
	require.NoError(t, err)
	assert.Empty(t, dir.dummyHash)

	_, err = dir.Authenticate(ctx, "bob", "abc123")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.True(t, strings.HasPrefix(dir.dummyHash, "argon2id$m=64,t=1,p=1$"), dir.dummyHash)

	ok, err := VerifyPassword("abc123", dir.dummyHash)
	require.NoError(t, err)
	assert.False(t, ok)

	first := dir.dummyHash
	_, err = dir.Authenticate(ctx, "carol", "abc123")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, first, dir.dummyHash)
}
