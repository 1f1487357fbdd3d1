// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

// Package auth provides account registration, login and password reset for wabbit.
//
// # Domain Types
//
//   - User - a registered account; created with NewUser
//   - FieldError / UserResponse - per-field validation results returned as data
//
// # Collaborators
//
// The Service depends only on interfaces:
//   - UserRepository - persistent user storage (see auth/postgres)
//   - SessionStore - key/value cache with TTL (see internal/sessionstore)
//   - PasswordHasher - argon2id by default
//   - Mailer - outbound email (see internal/mail)
//
// # Sessions
//
// Session and reset tokens are random 32 byte values handed to the client in hex.
// Only their SHA256 hashes are used as store keys, so a dump of the cache cannot be
// replayed as cookies or reset links.
package auth
