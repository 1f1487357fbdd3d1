// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/samber/oops"
)

// Session token configuration.
const (
	SessionTokenBytes = 32 // 32 bytes = 64 hex chars

	// DefaultSessionTTL matches the ten year cookie lifetime.
	DefaultSessionTTL = 10 * 365 * 24 * time.Hour

	sessionKeyPrefix = "sess:"
)

// SessionStore is a key/value cache with per-key expiry.
// Implementations must treat a zero ttl as "no expiry" and must not fail when
// deleting a key that does not exist.
type SessionStore interface {
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value for key, or ErrNotFound if it is absent or expired.
	Get(ctx context.Context, key string) (string, error)

	// Delete removes key.
	Delete(ctx context.Context, key string) error
}

// GenerateSessionToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error).
// The plaintext token goes into the cookie; the hash is the store key.
func GenerateSessionToken() (token, hash string, err error) {
	return generateToken(SessionTokenBytes, "SESSION_TOKEN_GENERATE_FAILED")
}

// HashToken computes the hex SHA256 of a session or reset token.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// SessionKey returns the store key for a plaintext session token.
func SessionKey(token string) string {
	return sessionKeyPrefix + HashToken(token)
}

func generateToken(size int, code string) (token, hash string, err error) {
	buf := make([]byte, size)
	if _, err = rand.Read(buf); err != nil {
		return "", "", oops.Code(code).
			With("operation", "crypto/rand.Read").
			With("requested_bytes", size).
			Wrap(err)
	}

	token = hex.EncodeToString(buf)
	return token, HashToken(token), nil
}

// parseUserID decodes a user id stored as a session or reset token value.
func parseUserID(value string) (int64, bool) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func formatUserID(id int64) string {
	return strconv.FormatInt(id, 10)
}
