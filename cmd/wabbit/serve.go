// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"

	"github.com/wabbit/wabbit/internal/api"
	"github.com/wabbit/wabbit/internal/auth"
	"github.com/wabbit/wabbit/internal/auth/postgres"
	"github.com/wabbit/wabbit/internal/config"
	"github.com/wabbit/wabbit/internal/logging"
	"github.com/wabbit/wabbit/internal/mail"
	"github.com/wabbit/wabbit/internal/observability"
	"github.com/wabbit/wabbit/internal/sessionstore"
	"github.com/wabbit/wabbit/internal/store"
	"github.com/wabbit/wabbit/pkg/errutil"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API. Connects to PostgreSQL and the session store,
then serves POST /graphql until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}
}

// pgDatabase adapts a pgx pool to Database.
type pgDatabase struct {
	pool *pgxpool.Pool
}

func (d *pgDatabase) Users() auth.UserRepository { return postgres.NewUserRepository(d.pool) }
func (d *pgDatabase) Ping(ctx context.Context) error { return d.pool.Ping(ctx) }
func (d *pgDatabase) Close() { d.pool.Close() }

func defaultServeDeps(deps *ServeDeps) *ServeDeps {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.DatabaseConnector == nil {
		deps.DatabaseConnector = func(ctx context.Context, url string) (Database, error) {
			pool, err := store.Connect(ctx, url)
			if err != nil {
				return nil, err
			}
			return &pgDatabase{pool: pool}, nil
		}
	}
	if deps.SessionStoreFactory == nil {
		deps.SessionStoreFactory = func(ctx context.Context, cfg *config.Config) (SessionBackend, error) {
			if cfg.Session.Store == config.StoreMemory {
				return sessionstore.NewMemory(), nil
			}
			return sessionstore.DialRedis(ctx, sessionstore.RedisConfig{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
		}
	}
	if deps.MailerFactory == nil {
		deps.MailerFactory = func(cfg config.MailConfig, logger *slog.Logger) (auth.Mailer, error) {
			return mail.New(mail.Config{Driver: cfg.Driver, From: cfg.From, PostmarkToken: cfg.PostmarkToken}, logger)
		}
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, readiness observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, readiness, logger)
		}
	}
	if deps.APIServerFactory == nil {
		deps.APIServerFactory = newAPIServer
	}
	if deps.StartupBackoff == nil {
		deps.StartupBackoff = func() retry.Backoff {
			return retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
		}
	}
	return deps
}

func newAPIServer(addr string, cfg *config.Config, svc *auth.Service, metrics *observability.Metrics, logger *slog.Logger) (Server, error) {
	handler, err := api.NewHandler(api.Operations(svc), api.CookieConfig{
		Name:   cfg.Session.CookieName,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.SecureCookie,
	}, metrics, logger)
	if err != nil {
		return nil, err
	}
	return api.NewServer(addr, api.NewRouter(handler, logger, metrics), logger), nil
}

// connectWithRetry calls connect until it succeeds or the backoff gives up.
func connectWithRetry[T any](ctx context.Context, b retry.Backoff, logger *slog.Logger, what string, connect func(context.Context) (T, error)) (T, error) {
	var out T
	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		v, err := connect(ctx)
		if err != nil {
			logger.WarnContext(ctx, "connect failed, retrying", "target", what, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		out = v
		return nil
	})
	if err != nil {
		return out, oops.With("target", what, "attempts", attempt).Wrap(err)
	}
	return out, nil
}

// runServeWithDeps starts the server with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	deps = defaultServeDeps(deps)

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.SetDefault(logging.Options{
		Service: "wabbit",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
		Writer:  cmd.ErrOrStderr(),
	})

	logger.Info("starting wabbit",
		"http_addr", cfg.HTTP.Addr,
		"session_store", cfg.Session.Store,
		"mail_driver", cfg.Mail.Driver,
	)

	db, err := connectWithRetry(ctx, deps.StartupBackoff(), logger, "postgres", func(ctx context.Context) (Database, error) {
		return deps.DatabaseConnector(ctx, cfg.Database.URL)
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	defer db.Close()
	logger.Info("connected to database")

	sessions, err := connectWithRetry(ctx, deps.StartupBackoff(), logger, "session store", func(ctx context.Context) (SessionBackend, error) {
		return deps.SessionStoreFactory(ctx, cfg)
	})
	if err != nil {
		return oops.Code("SESSION_STORE_CONNECT_FAILED").Wrap(err)
	}
	defer func() {
		if closeErr := sessions.Close(); closeErr != nil {
			logger.Warn("error closing session store", "error", closeErr)
		}
	}()
	logger.Info("session store ready", "store", cfg.Session.Store)

	mailer, err := deps.MailerFactory(cfg.Mail, logger)
	if err != nil {
		return err
	}

	svc, err := auth.NewServiceWithLogger(db.Users(), sessions, auth.NewArgon2idHasher(), mailer, auth.Config{
		SessionTTL:   cfg.Session.TTL,
		ResetBaseURL: cfg.Mail.ResetBaseURL,
	}, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, observability.AllReady(map[string]observability.Pinger{
			"postgres":      db,
			"session_store": sessions,
		}), logger)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, logger, obsErrChan, "observability")
		metrics = obsServer.Metrics()
	}

	apiServer, err := deps.APIServerFactory(cfg.HTTP.Addr, cfg, svc, metrics, logger)
	if err != nil {
		stopServers(logger, obsServer)
		return err
	}
	apiErrChan, err := apiServer.Start()
	if err != nil {
		stopServers(logger, obsServer)
		return oops.Code("API_START_FAILED").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, logger, apiErrChan, "api")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("wabbit serving on " + apiServer.Addr())
	logger.Info("wabbit ready", "addr", apiServer.Addr())

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	stopServers(logger, apiServer, obsServer)
	logger.Info("shutdown complete")
	return nil
}

// stopServers stops servers in order, sharing one shutdown deadline. Nil entries are skipped.
func stopServers(logger *slog.Logger, servers ...Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, s := range servers {
		if s == nil {
			continue
		}
		if err := s.Stop(shutdownCtx); err != nil {
			errutil.LogError(logger, "error stopping server", err)
		}
	}
}

// monitorServerErrors cancels ctx when a server reports an error.
// It returns once errCh yields or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown", "server", serverName, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
