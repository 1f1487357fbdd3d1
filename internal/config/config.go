// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

// Package config loads server settings. Sources are layered: flag defaults,
// then the YAML config file, then flags set on the command line.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// DatabaseURLEnv is consulted when no database url is configured.
const DatabaseURLEnv = "DATABASE_URL"

// Session store kinds.
const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config is the full server configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http" json:"http" yaml:"http"`
	Metrics  MetricsConfig  `koanf:"metrics" json:"metrics" yaml:"metrics"`
	Database DatabaseConfig `koanf:"database" json:"database" yaml:"database"`
	Session  SessionConfig  `koanf:"session" json:"session" yaml:"session"`
	Redis    RedisConfig    `koanf:"redis" json:"redis" yaml:"redis"`
	Mail     MailConfig     `koanf:"mail" json:"mail" yaml:"mail"`
	Log      LogConfig      `koanf:"log" json:"log" yaml:"log"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr string `koanf:"addr" json:"addr" yaml:"addr"`
}

// MetricsConfig configures the observability listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr" yaml:"addr"`
}

// DatabaseConfig configures PostgreSQL.
type DatabaseConfig struct {
	URL string `koanf:"url" json:"url" yaml:"url"`
}

// SessionConfig configures login sessions and the session cookie.
type SessionConfig struct {
	Store        string        `koanf:"store" json:"store" yaml:"store"`
	CookieName   string        `koanf:"cookie_name" json:"cookie_name" yaml:"cookie_name"`
	TTL          time.Duration `koanf:"ttl" json:"ttl" yaml:"ttl"`
	SecureCookie bool          `koanf:"secure_cookie" json:"secure_cookie" yaml:"secure_cookie"`
}

// RedisConfig configures the Redis session store.
type RedisConfig struct {
	Addr     string `koanf:"addr" json:"addr" yaml:"addr"`
	Password string `koanf:"password" json:"-" yaml:"-"`
	DB       int    `koanf:"db" json:"db" yaml:"db"`
}

// MailConfig configures outbound email.
type MailConfig struct {
	Driver        string `koanf:"driver" json:"driver" yaml:"driver"`
	From          string `koanf:"from" json:"from" yaml:"from"`
	PostmarkToken string `koanf:"postmark_token" json:"-" yaml:"-"`
	ResetBaseURL  string `koanf:"reset_base_url" json:"reset_base_url" yaml:"reset_base_url"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Format string `koanf:"format" json:"format" yaml:"format"`
	Level  string `koanf:"level" json:"level" yaml:"level"`
}

// Defaults.
const (
	DefaultHTTPAddr     = ":4000"
	DefaultMetricsAddr  = "127.0.0.1:9100"
	DefaultCookieName   = "qid"
	DefaultSessionTTL   = 10 * 365 * 24 * time.Hour
	DefaultRedisAddr    = "localhost:6379"
	DefaultMailFrom     = "no-reply@wabbit.local"
	DefaultResetBaseURL = "http://localhost:3000"
)

// RegisterFlags adds one flag per setting to fs. Flag "session-cookie-name"
// maps to key "session.cookie_name".
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", DefaultHTTPAddr, "API listen address")
	fs.String("metrics-addr", DefaultMetricsAddr, "metrics/health listen address (empty = disabled)")
	fs.String("database-url", "", "PostgreSQL URL (default: $"+DatabaseURLEnv+")")
	fs.String("session-store", StoreRedis, "session store: redis or memory")
	fs.String("session-cookie-name", DefaultCookieName, "session cookie name")
	fs.Duration("session-ttl", DefaultSessionTTL, "session lifetime (0 = never expires)")
	fs.Bool("session-secure-cookie", false, "mark the session cookie Secure")
	fs.String("redis-addr", DefaultRedisAddr, "Redis address")
	fs.String("redis-password", "", "Redis password")
	fs.Int("redis-db", 0, "Redis database number")
	fs.String("mail-driver", "log", "mail driver: log or postmark")
	fs.String("mail-from", DefaultMailFrom, "sender address")
	fs.String("mail-postmark-token", "", "Postmark server token")
	fs.String("mail-reset-base-url", DefaultResetBaseURL, "front-end origin for password reset links")
	fs.String("log-format", "json", "log format: json or text")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
}

// flagKey maps a flag name to its config key, or "" for flags that are not settings.
func flagKey(name string) string {
	section, rest, ok := strings.Cut(name, "-")
	if !ok {
		return ""
	}
	switch section {
	case "http", "metrics", "database", "session", "redis", "mail", "log":
		return section + "." + strings.ReplaceAll(rest, "-", "_")
	}
	return ""
}

// Load builds a Config from the flags registered by RegisterFlags and the YAML
// file at path (skipped when path is empty).
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key := flagKey(f.Name)
			if key == "" {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "unmarshal").Wrap(err)
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv(DatabaseURLEnv)
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	invalid := func(key string, format string, args ...any) error {
		return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
	}

	switch {
	case c.HTTP.Addr == "":
		return invalid("http.addr", "http address is required")
	case c.Database.URL == "":
		return invalid("database.url", "database url is required (flag, config file or $%s)", DatabaseURLEnv)
	case c.Session.Store != StoreRedis && c.Session.Store != StoreMemory:
		return invalid("session.store", "session store must be %q or %q, got %q", StoreRedis, StoreMemory, c.Session.Store)
	case c.Session.Store == StoreRedis && c.Redis.Addr == "":
		return invalid("redis.addr", "redis address is required for the redis session store")
	case c.Session.CookieName == "":
		return invalid("session.cookie_name", "session cookie name is required")
	case c.Session.TTL < 0:
		return invalid("session.ttl", "session ttl cannot be negative")
	case c.Mail.Driver != "log" && c.Mail.Driver != "postmark":
		return invalid("mail.driver", "mail driver must be log or postmark, got %q", c.Mail.Driver)
	case c.Mail.Driver == "postmark" && c.Mail.PostmarkToken == "":
		return invalid("mail.postmark_token", "postmark token is required for the postmark mail driver")
	case c.Mail.ResetBaseURL == "":
		return invalid("mail.reset_base_url", "reset base url is required")
	case c.Log.Format != "json" && c.Log.Format != "text":
		return invalid("log.format", "log format must be json or text, got %q", c.Log.Format)
	}
	return nil
}
