package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kontorlabs/kontor/auth"
)

// AuthAPI speaks to the credential-issuing endpoints. It uses a plain
// HTTP client, not the authenticating transport, so a failure of its own
// calls can never recurse into the refresh flow.
type AuthAPI struct {
	baseURL string
	client  *http.Client
}

// AuthAPIOption configures an AuthAPI.
type AuthAPIOption func(*AuthAPI)

// WithAuthHTTPClient overrides the HTTP client used for auth calls.
func WithAuthHTTPClient(c *http.Client) AuthAPIOption {
	return func(a *AuthAPI) {
		if c != nil {
			a.client = c
		}
	}
}

// NewAuthAPI is the constructor for the auth endpoint client. Calls are
// bounded by the refresh timeout by default.
func NewAuthAPI(baseURL string, opts ...AuthAPIOption) *AuthAPI {
	a := &AuthAPI{
		baseURL: baseURL,
		client:  &http.Client{Timeout: auth.DefaultRefreshTimeout},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// tokenResponse is the issuance payload shared by login and refresh.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Refresh exchanges the refresh token for a new credential pair. Any
// non-2xx answer means the session is unrecoverable and is reported as
// ErrRefreshRejected; both tokens of a successful answer replace the
// stored pair together.
func (a *AuthAPI) Refresh(ctx context.Context, refreshToken string) (auth.Credentials, error) {
	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return auth.Credentials{}, fmt.Errorf("failed to encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/auth/refresh", bytes.NewReader(payload))
	if err != nil {
		return auth.Credentials{}, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return auth.Credentials{}, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().Int("status", resp.StatusCode).Msg("Refresh endpoint rejected the exchange")
		return auth.Credentials{}, fmt.Errorf("refresh endpoint returned HTTP %d: %w", resp.StatusCode, auth.ErrRefreshRejected)
	}

	var result tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return auth.Credentials{}, fmt.Errorf("failed to parse refresh response: %w", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		return auth.Credentials{}, fmt.Errorf("refresh response is missing tokens: %w", auth.ErrRefreshRejected)
	}

	return auth.Credentials{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}, nil
}

// Login trades an email/password pair for session credentials.
func (a *AuthAPI) Login(ctx context.Context, email, password string) (auth.Credentials, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return auth.Credentials{}, fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return auth.Credentials{}, fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return auth.Credentials{}, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return auth.Credentials{}, newAPIError(resp)
	}

	var result tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return auth.Credentials{}, fmt.Errorf("failed to parse login response: %w", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		return auth.Credentials{}, fmt.Errorf("login response is missing tokens")
	}

	log.Info().Msg("Login succeeded")
	return auth.Credentials{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}, nil
}

// Logout revokes the refresh token server-side. Revocation is best-effort;
// the local session is cleared regardless of the outcome, so callers treat
// an error here as advisory.
func (a *AuthAPI) Logout(ctx context.Context, accessToken string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/auth/logout", nil)
	if err != nil {
		return fmt.Errorf("failed to create logout request: %w", err)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}
	return nil
}
