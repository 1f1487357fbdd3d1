// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Returned by UserRepository.Create when a unique constraint rejects the row.
var (
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateEmail    = errors.New("duplicate email")
)

// Error codes attached with oops.Code.
const (
	CodeUnauthenticated = "AUTH_UNAUTHENTICATED"
	CodeRegisterFailed  = "AUTH_REGISTER_FAILED"
	CodeLoginFailed     = "AUTH_LOGIN_FAILED"
	CodeSessionFailed   = "AUTH_SESSION_FAILED"
	CodeResetFailed     = "RESET_REQUEST_FAILED"
	CodeChangeFailed    = "RESET_PASSWORD_FAILED"
	CodeLookupFailed    = "AUTH_LOOKUP_FAILED"
)
