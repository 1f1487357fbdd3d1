// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

// Package mail delivers outbound email for auth.Mailer.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/wabbit/wabbit/internal/auth"
)

// DefaultPostmarkEndpoint is Postmark's single-message API.
const DefaultPostmarkEndpoint = "https://api.postmarkapp.com/email"

// Postmark sends email through the Postmark HTTP API.
type Postmark struct {
	serverToken string
	from        string
	endpoint    string
	httpClient  *http.Client
}

// Compile-time interface check.
var _ auth.Mailer = (*Postmark)(nil)

// PostmarkOption configures a Postmark client.
type PostmarkOption func(*Postmark)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) PostmarkOption {
	return func(p *Postmark) {
		p.httpClient = c
	}
}

// WithEndpoint points the client at a different API URL.
func WithEndpoint(url string) PostmarkOption {
	return func(p *Postmark) {
		p.endpoint = url
	}
}

// NewPostmark creates a Postmark client sending as from.
func NewPostmark(serverToken, from string, opts ...PostmarkOption) (*Postmark, error) {
	if serverToken == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("postmark server token is required")
	}
	if from == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("sender address is required")
	}

	p := &Postmark{
		serverToken: serverToken,
		from:        from,
		endpoint:    DefaultPostmarkEndpoint,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type postmarkMessage struct {
	From          string `json:"From"`
	To            string `json:"To"`
	Subject       string `json:"Subject"`
	HTMLBody      string `json:"HtmlBody"`
	MessageStream string `json:"MessageStream"`
}

type postmarkResponse struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

// Send delivers one HTML message.
func (p *Postmark) Send(ctx context.Context, to, subject, htmlBody string) error {
	body, err := json.Marshal(postmarkMessage{
		From:          p.from,
		To:            to,
		Subject:       subject,
		HTMLBody:      htmlBody,
		MessageStream: "outbound",
	})
	if err != nil {
		return oops.Code("MAIL_SEND_FAILED").With("operation", "marshal message").Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return oops.Code("MAIL_SEND_FAILED").With("operation", "create request").Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", p.serverToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return oops.Code("MAIL_SEND_FAILED").With("operation", "post message").Wrap(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr postmarkResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096)) //nolint:errcheck // best effort detail
		_ = json.Unmarshal(raw, &apiErr)                       //nolint:errcheck // body may not be JSON
		return oops.Code("MAIL_SEND_FAILED").
			With("status", resp.StatusCode).
			With("postmark_error_code", apiErr.ErrorCode).
			Errorf("postmark API error: %s", apiErr.Message)
	}
	return nil
}
