// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package api

// RequestContext is built once per request and handed to the operation.
type RequestContext struct {
	RequestID    string
	SessionToken string

	newSession   string
	clearSession bool
}

// SetSession makes the response carry a session cookie holding token.
func (rc *RequestContext) SetSession(token string) {
	rc.newSession = token
	rc.clearSession = false
}

// ClearSession makes the response expire the session cookie.
func (rc *RequestContext) ClearSession() {
	rc.newSession = ""
	rc.clearSession = true
}
