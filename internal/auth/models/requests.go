package models

import (
	"strings"

	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
)

// Claims are the identity claims embedded in an issued token.
type Claims struct {
	UserID      id.UserID
	DisplayName string
	IssuedFor   id.Audience
}

// LoginRequest carries identity claims asserted by the upstream identity
// provider for a citizen login.
type LoginRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	ExternalUID string `json:"external_uid"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	r.Name = strings.TrimSpace(r.Name)
	r.ExternalUID = strings.TrimSpace(r.ExternalUID)
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if _, err := id.ParseUserID(r.Email); err != nil {
		return dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	if len(r.Name) > 200 {
		return dErrors.New(dErrors.CodeValidation, "name is too long")
	}
	return nil
}

// GovernmentLoginRequest is the reviewer credential login.
type GovernmentLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *GovernmentLoginRequest) Normalize() {
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
}

func (r *GovernmentLoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	if len(r.Password) > 72 {
		return dErrors.New(dErrors.CodeValidation, "password is too long")
	}
	return nil
}
