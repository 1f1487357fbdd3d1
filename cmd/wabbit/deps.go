// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/sethvargo/go-retry"

	"github.com/wabbit/wabbit/internal/auth"
	"github.com/wabbit/wabbit/internal/config"
	"github.com/wabbit/wabbit/internal/observability"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// DatabaseConnector opens the user database.
	// Default: store.Connect wrapped with postgres.NewUserRepository
	DatabaseConnector func(ctx context.Context, url string) (Database, error)

	// SessionStoreFactory opens the session store selected by cfg.Session.Store.
	// Default: sessionstore.DialRedis or sessionstore.NewMemory
	SessionStoreFactory func(ctx context.Context, cfg *config.Config) (SessionBackend, error)

	// MailerFactory builds the outbound mailer.
	// Default: mail.New
	MailerFactory func(cfg config.MailConfig, logger *slog.Logger) (auth.Mailer, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readiness observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer

	// APIServerFactory creates the API server.
	// Default: api.NewServer
	APIServerFactory func(addr string, cfg *config.Config, svc *auth.Service, metrics *observability.Metrics, logger *slog.Logger) (Server, error)

	// StartupBackoff paces connection attempts to the database and session store.
	// Default: exponential from 500ms, 5 retries
	StartupBackoff func() retry.Backoff
}

// MigrateDeps contains injectable dependencies for the migrate command.
type MigrateDeps struct {
	// MigratorFactory opens a migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (Migrator, error)
}

// Database is the user table and the pool behind it.
type Database interface {
	Users() auth.UserRepository
	Ping(ctx context.Context) error
	Close()
}

// SessionBackend is a session store that can be probed and closed.
type SessionBackend interface {
	auth.SessionStore
	Ping(ctx context.Context) error
	Close() error
}

// Server is a background HTTP server.
type Server interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Server
	Metrics() *observability.Metrics
}

// Migrator interface wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	AppliedMigrations() ([]uint, error)
	Close() error
}
