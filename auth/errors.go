package auth

import "errors"

var (
	// ErrNoCredentials indicates that no credential pair is stored at all.
	ErrNoCredentials = errors.New("auth: no stored credentials")

	// ErrNoRefreshToken indicates that a refresh was requested but the
	// stored pair carries no refresh token to exchange.
	ErrNoRefreshToken = errors.New("auth: no refresh token available")

	// ErrRefreshRejected indicates that the refresh endpoint refused the
	// exchange; the session cannot recover without re-authentication.
	ErrRefreshRejected = errors.New("auth: refresh rejected")
)
