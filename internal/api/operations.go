// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package api

import (
	"context"
	"encoding/json"

	"github.com/samber/oops"

	"github.com/wabbit/wabbit/internal/auth"
	"github.com/wabbit/wabbit/internal/observability"
)

// Auth is the slice of auth.Service the transport drives.
type Auth interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.UserResponse, string, error)
	Login(ctx context.Context, usernameOrEmail, password string) (*auth.UserResponse, string, error)
	Logout(ctx context.Context, token string) bool
	ForgotPassword(ctx context.Context, email string) (bool, error)
	ChangePassword(ctx context.Context, token, newPassword string) (*auth.UserResponse, string, error)
	Me(ctx context.Context, token string) (*auth.User, error)
	UserByID(ctx context.Context, id int64) (*auth.User, error)
}

// Operation is one named entry point of the API.
type Operation struct {
	Name string

	// input returns a pointer to a zero value of the variables type.
	input func() any
	run   func(ctx context.Context, rc *RequestContext, vars any) (any, error)
}

// Input returns a zero value of the operation's variables type.
func (op Operation) Input() any {
	return op.input()
}

func newOperation[V any](name string, run func(ctx context.Context, rc *RequestContext, vars *V) (any, error)) Operation {
	return Operation{
		Name:  name,
		input: func() any { return new(V) },
		run: func(ctx context.Context, rc *RequestContext, vars any) (any, error) {
			return run(ctx, rc, vars.(*V))
		},
	}
}

// decode unmarshals raw variables into a fresh input value.
func (op Operation) decode(raw json.RawMessage) (any, error) {
	vars := op.input()
	if len(raw) == 0 {
		return vars, nil
	}
	if err := json.Unmarshal(raw, vars); err != nil {
		return nil, oops.Code("INVALID_VARIABLES").With("operation", op.Name).Wrap(err)
	}
	return vars, nil
}

// Variables of each operation.
type (
	RegisterVars struct {
		Options auth.RegisterInput `json:"options"`
	}
	LoginVars struct {
		UsernameOrEmail string `json:"usernameOrEmail"`
		Password        string `json:"password"`
	}
	ForgotPasswordVars struct {
		Email string `json:"email"`
	}
	ChangePasswordVars struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	UserVars struct {
		ID int64 `json:"id"`
	}
	NoVars struct{}
)

// Operations returns the operation table served by the handler.
func Operations(svc Auth) []Operation {
	withSession := func(rc *RequestContext, resp *auth.UserResponse, token string, err error) (any, error) {
		if err != nil {
			return nil, err
		}
		if token != "" {
			rc.SetSession(token)
		}
		return resp, nil
	}

	return []Operation{
		newOperation("register", func(ctx context.Context, rc *RequestContext, v *RegisterVars) (any, error) {
			resp, token, err := svc.Register(ctx, v.Options)
			return withSession(rc, resp, token, err)
		}),
		newOperation("login", func(ctx context.Context, rc *RequestContext, v *LoginVars) (any, error) {
			resp, token, err := svc.Login(ctx, v.UsernameOrEmail, v.Password)
			return withSession(rc, resp, token, err)
		}),
		newOperation("logout", func(ctx context.Context, rc *RequestContext, _ *NoVars) (any, error) {
			ok := svc.Logout(ctx, rc.SessionToken)
			rc.ClearSession()
			return ok, nil
		}),
		newOperation("forgotPassword", func(ctx context.Context, _ *RequestContext, v *ForgotPasswordVars) (any, error) {
			return svc.ForgotPassword(ctx, v.Email)
		}),
		newOperation("changePassword", func(ctx context.Context, rc *RequestContext, v *ChangePasswordVars) (any, error) {
			resp, token, err := svc.ChangePassword(ctx, v.Token, v.NewPassword)
			return withSession(rc, resp, token, err)
		}),
		newOperation("me", func(ctx context.Context, rc *RequestContext, _ *NoVars) (any, error) {
			return svc.Me(ctx, rc.SessionToken)
		}),
		newOperation("user", func(ctx context.Context, _ *RequestContext, v *UserVars) (any, error) {
			return svc.UserByID(ctx, v.ID)
		}),
	}
}

// outcome classifies a result for metrics.
func outcome(result any, err error) string {
	if err != nil {
		return observability.OutcomeError
	}
	switch r := result.(type) {
	case *auth.UserResponse:
		if r != nil && !r.OK() {
			return observability.OutcomeFieldError
		}
	case bool:
		if !r {
			return observability.OutcomeError
		}
	}
	return observability.OutcomeOK
}
