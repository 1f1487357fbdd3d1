// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package mail

import (
	"log/slog"

	"github.com/samber/oops"

	"github.com/wabbit/wabbit/internal/auth"
)

// Drivers accepted by New.
const (
	DriverLog      = "log"
	DriverPostmark = "postmark"
)

// Config selects and configures a driver.
type Config struct {
	Driver        string
	From          string
	PostmarkToken string
}

// New builds the mailer named by cfg.Driver.
func New(cfg Config, logger *slog.Logger) (auth.Mailer, error) {
	switch cfg.Driver {
	case DriverLog, "":
		return NewLog(logger), nil
	case DriverPostmark:
		pm, err := NewPostmark(cfg.PostmarkToken, cfg.From)
		if err != nil {
			return nil, err
		}
		return pm, nil
	default:
		return nil, oops.Code("MAIL_CONFIG_INVALID").
			With("driver", cfg.Driver).
			Errorf("unknown mail driver %q", cfg.Driver)
	}
}
