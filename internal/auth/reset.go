// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package auth

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"
)

// Reset token configuration.
const (
	ResetTokenBytes  = 32        // 32 bytes = 64 hex chars
	ResetTokenExpiry = time.Hour // 1 hour expiry

	resetKeyPrefix = "forget-password:"
)

// Mailer delivers outbound email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// GenerateResetToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error).
// The plaintext token goes into the emailed link; the hash is the store key.
func GenerateResetToken() (token, hash string, err error) {
	return generateToken(ResetTokenBytes, "RESET_TOKEN_GENERATE_FAILED")
}

// ResetKey returns the store key for a plaintext reset token.
func ResetKey(token string) string {
	return resetKeyPrefix + HashToken(token)
}

// ResetLink builds the change-password link for token under baseURL.
func ResetLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/change-password/" + url.PathEscape(token)
}

func resetEmailBody(link string) string {
	return fmt.Sprintf(`<a href="%s">reset password</a>`, html.EscapeString(link))
}
