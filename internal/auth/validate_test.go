// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wabbit/wabbit/internal/auth"
)

func TestValidateRegister(t *testing.T) {
	valid := auth.RegisterInput{Username: "bunny", Email: "bunny@example.com", Password: "carrot"}

	tests := []struct {
		name    string
		mutate  func(in *auth.RegisterInput)
		field   string
		message string
	}{
		{
			name:    "short username short-circuits before email",
			mutate:  func(in *auth.RegisterInput) { in.Username = "ab"; in.Email = "" },
			field:   "username",
			message: "username length should be greater than 3",
		},
		{
			name:    "three character username",
			mutate:  func(in *auth.RegisterInput) { in.Username = "abc" },
			field:   "username",
			message: "username length should be greater than 3",
		},
		{
			name:    "username with at sign",
			mutate:  func(in *auth.RegisterInput) { in.Username = "bun@ny" },
			field:   "username",
			message: "Username cannot include the '@' sign",
		},
		{
			name:    "empty email",
			mutate:  func(in *auth.RegisterInput) { in.Email = "" },
			field:   "email",
			message: "Email field can not be empty",
		},
		{
			name:    "email without at sign",
			mutate:  func(in *auth.RegisterInput) { in.Email = "bunny.example.com" },
			field:   "email",
			message: "Please use a valid email. eg 'john@gmail.com'",
		},
		{
			name:    "short password",
			mutate:  func(in *auth.RegisterInput) { in.Password = "abc" },
			field:   "password",
			message: "password length should be greater than 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)

			errs := auth.ValidateRegister(in)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Equal(t, tt.message, errs[0].Message)
		})
	}

	t.Run("valid input returns nil", func(t *testing.T) {
		assert.Nil(t, auth.ValidateRegister(valid))
	})

	t.Run("documented example", func(t *testing.T) {
		errs := auth.ValidateRegister(auth.RegisterInput{Username: "ab", Email: "", Password: "abcd"})
		require.NotEmpty(t, errs)
		assert.Equal(t, auth.FieldError{Field: "username", Message: "username length should be greater than 3"}, errs[0])
	})

	t.Run("every username of length up to three fails on username", func(t *testing.T) {
		for n := 0; n <= 3; n++ {
			in := valid
			in.Username = strings.Repeat("x", n)
			errs := auth.ValidateRegister(in)
			require.Len(t, errs, 1, "length %d", n)
			assert.Equal(t, "username", errs[0].Field, "length %d", n)
		}
	})
}

func TestUserResponse_OK(t *testing.T) {
	assert.True(t, (&auth.UserResponse{User: &auth.User{ID: 1}}).OK())
	assert.False(t, (&auth.UserResponse{Errors: []auth.FieldError{{Field: "x", Message: "y"}}}).OK())
}
