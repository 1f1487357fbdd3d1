// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wabbit/wabbit/internal/auth"
	"github.com/wabbit/wabbit/pkg/errutil"
)

func TestHashPassword(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("produces PHC encoded argon2id hash", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))
		assert.Len(t, strings.Split(hash, "$"), 6)
	})

	t.Run("never contains the plaintext", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.NotContains(t, hash, "password123")
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_EMPTY_PASSWORD")
	})
}

func TestVerifyPassword(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("correct password verifies", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify("correctpassword", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("incorrect password fails without error", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify("wrongpassword", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	malformed := []struct {
		name string
		hash string
	}{
		{"invalid hash format", "not-a-valid-hash"},
		{"wrong algorithm", "$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{"invalid version format", "$argon2id$vXX$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{"unsupported version", "$argon2id$v=16$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{"invalid parameters format", "$argon2id$v=19$invalid$c2FsdA$aGFzaA"},
		{"invalid salt base64", "$argon2id$v=19$m=65536,t=1,p=4$!!!invalid!!!$aGFzaA"},
		{"invalid hash base64", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$!!!invalid!!!"},
		{"threads overflow", "$argon2id$v=19$m=65536,t=1,p=256$c2FsdA$aGFzaA"},
		{"empty key", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$"},
		{"zero time", "$argon2id$v=19$m=65536,t=0,p=4$c2FsdA$aGFzaA"},
		{"excessive time", "$argon2id$v=19$m=65536,t=4294967295,p=4$c2FsdA$aGFzaA"},
		{"zero memory", "$argon2id$v=19$m=0,t=1,p=4$c2FsdA$aGFzaA"},
		{"memory below lane minimum", "$argon2id$v=19$m=16,t=1,p=4$c2FsdA$aGFzaA"},
		{"oversized memory", "$argon2id$v=19$m=4294967295,t=1,p=4$c2FsdA$aGFzaA"},
	}
	for _, tt := range malformed {
		t.Run(tt.name+" fails closed", func(t *testing.T) {
			var ok bool
			var err error
			require.NotPanics(t, func() { ok, err = hasher.Verify("password", tt.hash) })
			require.Error(t, err)
			assert.False(t, ok)
			errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
		})
	}

	t.Run("verifies hashes made with other parameters", func(t *testing.T) {
		cheap, err := auth.NewArgon2idHasherWithParams(auth.Argon2idParams{Time: 1, Memory: 1024, Threads: 1})
		require.NoError(t, err)
		hash, err := cheap.Hash("password")
		require.NoError(t, err)

		ok, err := hasher.Verify("password", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestNeedsRehash(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("bcrypt hash needs rehash", func(t *testing.T) {
		assert.True(t, hasher.NeedsRehash("$2a$10$N9qo8uLOickgx2ZMRZoMyeIvNq.Uf3hE9tQALNP1Qn9sNp5x5x5x5"))
	})

	t.Run("hash with current parameters does not", func(t *testing.T) {
		hash, err := hasher.Hash("password")
		require.NoError(t, err)
		assert.False(t, hasher.NeedsRehash(hash))
	})

	t.Run("hash with weaker parameters does", func(t *testing.T) {
		cheap, err := auth.NewArgon2idHasherWithParams(auth.Argon2idParams{Time: 1, Memory: 1024, Threads: 1})
		require.NoError(t, err)
		hash, err := cheap.Hash("password")
		require.NoError(t, err)
		assert.True(t, hasher.NeedsRehash(hash))
	})
}

func TestNewArgon2idHasherWithParams_RejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		params auth.Argon2idParams
	}{
		{"zero memory", auth.Argon2idParams{Time: 1, Memory: 0, Threads: 1}},
		{"zero time", auth.Argon2idParams{Time: 0, Memory: 1024, Threads: 1}},
		{"zero threads", auth.Argon2idParams{Time: 1, Memory: 1024, Threads: 0}},
		{"memory below lane minimum", auth.Argon2idParams{Time: 1, Memory: 16, Threads: 4}},
		{"oversized memory", auth.Argon2idParams{Time: 1, Memory: 1<<20 + 1, Threads: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.NewArgon2idHasherWithParams(tt.params)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH_PARAMS")
		})
	}
}
