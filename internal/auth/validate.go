// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package auth

import "strings"

// MinPasswordLength is the shortest password accepted on register and change-password.
const MinPasswordLength = 4

// minUsernameLength is the shortest username accepted on register.
const minUsernameLength = 4

// FieldError is a validation or business failure tied to one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// UserResponse is the result of register, login and change-password: either a user or
// the field errors explaining why there is none.
type UserResponse struct {
	User   *User        `json:"user,omitempty"`
	Errors []FieldError `json:"errors,omitempty"`
}

// OK reports whether the response carries no field errors.
func (r *UserResponse) OK() bool {
	return len(r.Errors) == 0
}

func fieldError(field, message string) *UserResponse {
	return &UserResponse{Errors: []FieldError{{Field: field, Message: message}}}
}

// RegisterInput holds the register mutation arguments.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar,omitempty"`
}

// ValidateRegister checks register input and returns the first failing rule, or nil.
// Length rules count bytes, as the stored limits do.
func ValidateRegister(in RegisterInput) []FieldError {
	switch {
	case len(in.Username) < minUsernameLength:
		return []FieldError{{Field: "username", Message: "username length should be greater than 3"}}
	case strings.Contains(in.Username, "@"):
		return []FieldError{{Field: "username", Message: "Username cannot include the '@' sign"}}
	case in.Email == "":
		return []FieldError{{Field: "email", Message: "Email field can not be empty"}}
	case !strings.Contains(in.Email, "@"):
		return []FieldError{{Field: "email", Message: "Please use a valid email. eg 'john@gmail.com'"}}
	case len(in.Password) < MinPasswordLength:
		return []FieldError{{Field: "password", Message: "password length should be greater than 3"}}
	}
	return nil
}
