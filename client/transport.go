package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kontorlabs/kontor/auth"
)

// errorBodyLimit caps how much of a failed response is buffered for replay
// to the caller.
const errorBodyLimit = 1 << 20

// TokenRefresher obtains a fresh access token after the server signals
// expiry. Concurrent callers may share one underlying refresh.
type TokenRefresher interface {
	EnsureFresh(ctx context.Context) (string, error)
}

// SessionEnder ends the local session after an unrecoverable auth failure.
type SessionEnder interface {
	Terminate(ctx context.Context, reason error)
}

// attemptState tracks a request attempt through the expiry/retry flow.
// The transitions are explicit so the at-most-one-retry rule is carried by
// the state machine itself rather than a flag that call sites must remember
// to check.
type attemptState int

const (
	attemptSent attemptState = iota
	attemptAwaitingRefresh
	attemptRetried
	attemptDone
	attemptFinalFailure
)

// AuthTransport is an http.RoundTripper that attaches the stored access
// token to outgoing requests and, on a 401 from a business endpoint,
// refreshes the credentials once and re-sends the request once. Requests to
// the authentication endpoints themselves pass through untouched by the
// refresh flow, and transport-level errors propagate unchanged.
type AuthTransport struct {
	base       http.RoundTripper
	store      auth.Store
	refresher  TokenRefresher
	terminator SessionEnder
}

// TransportOption configures an AuthTransport.
type TransportOption func(*AuthTransport)

// WithBaseTransport overrides the underlying RoundTripper used for the
// actual wire exchange. Defaults to http.DefaultTransport.
func WithBaseTransport(rt http.RoundTripper) TransportOption {
	return func(t *AuthTransport) {
		if rt != nil {
			t.base = rt
		}
	}
}

// NewAuthTransport is the constructor for the authenticating transport.
func NewAuthTransport(store auth.Store, refresher TokenRefresher, terminator SessionEnder, opts ...TransportOption) *AuthTransport {
	t := &AuthTransport{
		base:       http.DefaultTransport,
		store:      store,
		refresher:  refresher,
		terminator: terminator,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RoundTrip implements http.RoundTripper. A non-auth-path request that
// comes back 401 waits for one credential refresh and is re-sent exactly
// once with the fresh token. If the refresh fails, the session is
// terminated and the original 401 response is surfaced to the caller, not
// the refresh error.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	attempt, err := t.prepare(req)
	if err != nil {
		return nil, err
	}

	state := attemptSent
	var resp, original *http.Response

	for {
		switch state {
		case attemptSent:
			resp, err = t.base.RoundTrip(attempt)
			if err != nil {
				// Transport-level failures never enter the refresh flow.
				return nil, err
			}
			if resp.StatusCode != http.StatusUnauthorized {
				state = attemptDone
				continue
			}
			if IsAuthPath(req.URL.Path) {
				// A 401 from an auth endpoint is a validation outcome,
				// not an expired session.
				log.Debug().Str("path", req.URL.Path).Msg("Auth endpoint rejected the request, passing through")
				state = attemptDone
				continue
			}
			log.Debug().Str("method", req.Method).Str("path", req.URL.Path).Msg("Access token rejected, awaiting credential refresh")
			original = bufferResponse(resp)
			state = attemptAwaitingRefresh

		case attemptAwaitingRefresh:
			token, refreshErr := t.refresher.EnsureFresh(ctx)
			if refreshErr != nil {
				if ctx.Err() != nil {
					// The caller is gone; the refresh itself keeps running
					// for any remaining waiters.
					return nil, refreshErr
				}
				t.terminator.Terminate(context.WithoutCancel(ctx), refreshErr)
				state = attemptFinalFailure
				continue
			}
			retry, retryErr := rebuildForRetry(attempt, token)
			if retryErr != nil {
				return nil, retryErr
			}
			attempt = retry
			state = attemptRetried

		case attemptRetried:
			log.Debug().Str("method", req.Method).Str("path", req.URL.Path).Msg("Re-sending request with refreshed credentials")
			resp, err = t.base.RoundTrip(attempt)
			if err != nil {
				return nil, err
			}
			// At most one re-send: whatever comes back now is final, a
			// second 401 included.
			state = attemptDone

		case attemptDone:
			return resp, nil

		case attemptFinalFailure:
			log.Debug().Str("method", req.Method).Str("path", req.URL.Path).Msg("Credential refresh failed, surfacing the original response")
			return original, nil
		}
	}
}

// prepare clones the request, makes its body replayable, tags it with a
// request id, and attaches the stored access token unless the caller
// already supplied an Authorization header.
func (t *AuthTransport) prepare(req *http.Request) (*http.Request, error) {
	attempt := req.Clone(req.Context())

	if req.Body != nil && req.GetBody == nil {
		data, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to buffer request body: %w", err)
		}
		attempt.Body = io.NopCloser(bytes.NewReader(data))
		attempt.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		}
		attempt.ContentLength = int64(len(data))
	}

	if attempt.Header.Get("X-Request-ID") == "" {
		attempt.Header.Set("X-Request-ID", uuid.New().String())
	}

	if attempt.Header.Get("Authorization") == "" {
		creds, err := t.store.Credentials(req.Context())
		if err != nil {
			// Attaching credentials is best-effort; the request proceeds
			// unauthenticated and the server responds accordingly.
			log.Debug().Err(err).Msg("Failed to read stored credentials, sending request unauthenticated")
		} else if creds != nil && creds.AccessToken != "" {
			attempt.Header.Set("Authorization", "Bearer "+creds.AccessToken)
		}
	}

	return attempt, nil
}

// rebuildForRetry clones the attempt with a fresh body and the refreshed
// token. The refreshed token replaces whatever Authorization header the
// first attempt carried.
func rebuildForRetry(attempt *http.Request, token string) (*http.Request, error) {
	retry := attempt.Clone(attempt.Context())
	if attempt.GetBody != nil {
		body, err := attempt.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body for retry: %w", err)
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+token)
	return retry, nil
}

// bufferResponse swaps the response body for an in-memory copy so it stays
// readable after the refresh round trip and the connection can be reused.
func bufferResponse(resp *http.Response) *http.Response {
	if resp.Body == nil {
		return resp
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	resp.Body.Close()
	if err != nil {
		data = nil
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp
}
