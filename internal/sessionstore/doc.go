// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

// Package sessionstore provides auth.SessionStore implementations.
//
// Redis is the production store. Memory keeps everything in process and is
// meant for development and tests.
package sessionstore
