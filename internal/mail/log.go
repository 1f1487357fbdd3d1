// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package mail

import (
	"context"
	"log/slog"

	"github.com/wabbit/wabbit/internal/auth"
)

// Log writes messages to a logger instead of sending them. Used in development
// so reset links can be copied from the server output.
type Log struct {
	logger *slog.Logger
}

// Compile-time interface check.
var _ auth.Mailer = (*Log)(nil)

// NewLog creates a Log mailer. A nil logger uses slog.Default.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Send logs the message at info level.
func (l *Log) Send(ctx context.Context, to, subject, htmlBody string) error {
	l.logger.InfoContext(ctx, "email not sent, log driver",
		"to", to,
		"subject", subject,
		"body", htmlBody)
	return nil
}
