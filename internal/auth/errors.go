package auth

import (
	"errors"
	"fmt"
)

// ErrNoAccounts is returned when the user info response lists no accounts.
var ErrNoAccounts = errors.New("auth: user has no accounts")

// CredentialError reports an unusable private key or missing identity.
type CredentialError struct {
	Op  string
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("auth: %s: %v", e.Op, e.Err)
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

// TokenError is a non-2xx answer from the account server.
type TokenError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *TokenError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("auth: token request failed (%d): %s: %s", e.StatusCode, e.Code, e.Description)
	}
	if e.Code != "" {
		return fmt.Sprintf("auth: token request failed (%d): %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("auth: token request failed (%d)", e.StatusCode)
}
