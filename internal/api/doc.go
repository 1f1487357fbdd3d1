// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

// Package api is the HTTP transport. Clients POST {"operation", "variables"} to
// /graphql; variables are validated against a JSON Schema reflected from the
// operation's input type before the handler runs. The session cookie is read
// and written here and nowhere else.
package api
