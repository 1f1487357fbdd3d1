// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/wabbit/wabbit/pkg/errutil"
)

// Config holds the tunables of a Service.
type Config struct {
	// SessionTTL bounds how long a login session lives in the store.
	// Zero means sessions never expire server-side.
	SessionTTL time.Duration

	// ResetBaseURL is the front-end origin that serves /change-password/<token>.
	ResetBaseURL string
}

// Service provides authentication operations.
type Service struct {
	users    UserRepository
	sessions SessionStore
	hasher   PasswordHasher
	mailer   Mailer
	cfg      Config
	logger   *slog.Logger
}

// NewService creates a new Service with a no-op logger.
// Returns an error if any required dependency is nil.
func NewService(users UserRepository, sessions SessionStore, hasher PasswordHasher, mailer Mailer, cfg Config) (*Service, error) {
	return NewServiceWithLogger(users, sessions, hasher, mailer, cfg, slog.New(slog.DiscardHandler))
}

// NewServiceWithLogger creates a new Service with the provided logger.
// Returns an error if any required dependency is nil.
func NewServiceWithLogger(
	users UserRepository,
	sessions SessionStore,
	hasher PasswordHasher,
	mailer Mailer,
	cfg Config,
	logger *slog.Logger,
) (*Service, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session store is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if mailer == nil {
		return nil, oops.Errorf("mailer is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	if cfg.SessionTTL < 0 {
		return nil, oops.With("session_ttl", cfg.SessionTTL).Errorf("session ttl cannot be negative")
	}
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		mailer:   mailer,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Register validates the input, creates the user and logs them in.
// Returns the response, the plaintext session token (empty unless a user was created)
// and any infrastructure error.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*UserResponse, string, error) {
	if errs := ValidateRegister(in); errs != nil {
		return &UserResponse{Errors: errs}, "", nil
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", oops.Code(CodeRegisterFailed).
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(in.Username, in.Email, hash, in.Avatar)
	if err != nil {
		return nil, "", oops.Code(CodeRegisterFailed).
			With("operation", "new user").
			Wrap(err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateEmail):
			return fieldError("email", "email has already been taken"), "", nil
		case errors.Is(err, ErrDuplicateUsername):
			return fieldError("username", "username has already been taken"), "", nil
		}
		return nil, "", oops.Code(CodeRegisterFailed).
			With("operation", "create user").
			With("username", in.Username).
			Wrap(err)
	}

	token, err := s.establishSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return &UserResponse{User: user}, token, nil
}

// Login looks the user up by email when usernameOrEmail contains '@' and by username
// otherwise, verifies the password and opens a session.
func (s *Service) Login(ctx context.Context, usernameOrEmail, password string) (*UserResponse, string, error) {
	user, err := s.lookup(ctx, usernameOrEmail)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fieldError("usernameOrEmail", "username does not exist"), "", nil
		}
		return nil, "", oops.Code(CodeLoginFailed).
			With("operation", "lookup user").
			Wrap(err)
	}

	valid, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		// Unreadable stored hash: treated as a mismatch.
		s.logger.WarnContext(ctx, "stored password hash could not be verified",
			"user_id", user.ID,
			"error", err)
	}
	if !valid {
		s.logger.DebugContext(ctx, "login rejected", "user_id", user.ID)
		return fieldError("password", "incorrect password"), "", nil
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user, password)
	}

	token, err := s.establishSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return &UserResponse{User: user}, token, nil
}

// Logout destroys the session behind token. It reports false when the store could not
// delete the session; an already absent session counts as logged out.
func (s *Service) Logout(ctx context.Context, token string) bool {
	if token == "" {
		return true
	}
	if err := s.sessions.Delete(ctx, SessionKey(token)); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "destroy session", oops.Code(CodeSessionFailed).
			With("operation", "delete session").
			Wrap(err))
		return false
	}
	return true
}

// ForgotPassword emails a reset link when email belongs to a user.
// It returns true whether or not a user matched so callers cannot probe for accounts.
// Email delivery failures are logged, not returned, for the same reason.
func (s *Service) ForgotPassword(ctx context.Context, email string) (bool, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return true, nil
		}
		return false, oops.Code(CodeResetFailed).
			With("operation", "GetByEmail").
			Wrap(err)
	}

	token, hash, err := GenerateResetToken()
	if err != nil {
		return false, oops.Code(CodeResetFailed).
			With("operation", "GenerateResetToken").
			Wrap(err)
	}

	if err := s.sessions.Set(ctx, resetKeyPrefix+hash, formatUserID(user.ID), ResetTokenExpiry); err != nil {
		return false, oops.Code(CodeResetFailed).
			With("operation", "store reset token").
			With("user_id", user.ID).
			Wrap(err)
	}

	link := ResetLink(s.cfg.ResetBaseURL, token)
	if err := s.mailer.Send(ctx, user.Email, "Reset your password", resetEmailBody(link)); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "send password reset email", oops.Code(CodeResetFailed).
			With("operation", "send email").
			With("user_id", user.ID).
			Wrap(err))
		return true, nil
	}

	s.logger.InfoContext(ctx, "password reset requested", "user_id", user.ID)
	return true, nil
}

// ChangePassword sets a new password using a reset token, consumes the token and
// logs the user in.
func (s *Service) ChangePassword(ctx context.Context, token, newPassword string) (*UserResponse, string, error) {
	if len(newPassword) < MinPasswordLength {
		return fieldError("newPassword", "password length should be greater than 3"), "", nil
	}

	key := ResetKey(token)
	value, err := s.sessions.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fieldError("token", "token expired"), "", nil
		}
		return nil, "", oops.Code(CodeChangeFailed).
			With("operation", "get reset token").
			Wrap(err)
	}

	userID, ok := parseUserID(value)
	if !ok {
		s.logger.WarnContext(ctx, "discarding malformed reset token value")
		if err := s.sessions.Delete(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "delete malformed reset token failed", "error", err)
		}
		return fieldError("token", "token expired"), "", nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fieldError("token", "user no longer exist"), "", nil
		}
		return nil, "", oops.Code(CodeChangeFailed).
			With("operation", "GetByID").
			With("user_id", userID).
			Wrap(err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, "", oops.Code(CodeChangeFailed).
			With("operation", "Hash").
			Wrap(err)
	}

	// Consume the token before touching the password so it cannot be replayed.
	if err := s.sessions.Delete(ctx, key); err != nil {
		return nil, "", oops.Code(CodeChangeFailed).
			With("operation", "delete reset token").
			With("user_id", userID).
			Wrap(err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fieldError("token", "user no longer exist"), "", nil
		}
		return nil, "", oops.Code(CodeChangeFailed).
			With("operation", "UpdatePassword").
			With("user_id", userID).
			Wrap(err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()

	sessionToken, err := s.establishSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.InfoContext(ctx, "password changed", "user_id", user.ID)
	return &UserResponse{User: user}, sessionToken, nil
}

// Authenticate resolves a session token to a user id. It fails with
// CodeUnauthenticated when there is no usable session.
func (s *Service) Authenticate(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, errUnauthenticated()
	}

	value, err := s.sessions.Get(ctx, SessionKey(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, errUnauthenticated()
		}
		return 0, oops.Code(CodeSessionFailed).
			With("operation", "get session").
			Wrap(err)
	}

	userID, ok := parseUserID(value)
	if !ok {
		return 0, errUnauthenticated()
	}
	return userID, nil
}

// Me returns the user bound to the session token, or nil when not logged in.
func (s *Service) Me(ctx context.Context, token string) (*User, error) {
	userID, err := s.Authenticate(ctx, token)
	if err != nil {
		if IsUnauthenticated(err) {
			return nil, nil
		}
		return nil, err
	}
	return s.UserByID(ctx, userID)
}

// UserByID returns the user with the given id, or nil if there is none.
func (s *Service) UserByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, oops.Code(CodeLookupFailed).
			With("operation", "GetByID").
			With("user_id", id).
			Wrap(err)
	}
	return user, nil
}

// IsUnauthenticated reports whether err carries CodeUnauthenticated.
func IsUnauthenticated(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	return ok && oopsErr.Code() == CodeUnauthenticated
}

func errUnauthenticated() error {
	return oops.Code(CodeUnauthenticated).Errorf("not authenticated")
}

func (s *Service) lookup(ctx context.Context, usernameOrEmail string) (*User, error) {
	if strings.Contains(usernameOrEmail, "@") {
		return s.users.GetByEmail(ctx, usernameOrEmail)
	}
	return s.users.GetByUsername(ctx, usernameOrEmail)
}

// upgradeHash re-hashes a verified password with the current parameters.
// Failures are logged; the login goes ahead with the old hash.
func (s *Service) upgradeHash(ctx context.Context, user *User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.WarnContext(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		s.logger.WarnContext(ctx, "persist upgraded password hash failed", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
}

func (s *Service) establishSession(ctx context.Context, userID int64) (string, error) {
	token, hash, err := GenerateSessionToken()
	if err != nil {
		return "", oops.Code(CodeSessionFailed).
			With("operation", "generate session token").
			Wrap(err)
	}

	if err := s.sessions.Set(ctx, sessionKeyPrefix+hash, formatUserID(userID), s.cfg.SessionTTL); err != nil {
		return "", oops.Code(CodeSessionFailed).
			With("operation", "persist session").
			With("user_id", userID).
			Wrap(err)
	}
	return token, nil
}
