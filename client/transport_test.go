package client_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/kontorlabs/kontor/auth"
	"github.com/kontorlabs/kontor/client"
	"github.com/kontorlabs/kontor/store"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

// testEnv wires a real coordinator, terminator, and transport against an
// httptest server, mirroring how the pieces run in production.
type testEnv struct {
	server    *httptest.Server
	store     *store.MemoryStore
	client    *http.Client
	redirects atomic.Int32
	location  string
	target    string
}

func newTestEnv(t *testing.T, handler http.Handler) *testEnv {
	t.Helper()

	env := &testEnv{
		store:    store.NewMemoryStore(),
		location: "/invoices/42",
	}
	env.server = httptest.NewServer(handler)
	t.Cleanup(env.server.Close)

	authAPI := client.NewAuthAPI(env.server.URL)
	coord := auth.NewCoordinator(env.store, authAPI, auth.WithRefreshTimeout(5*time.Second))
	term := auth.NewTerminator(env.store, auth.WithNavigation(
		func() string { return env.location },
		func(target string) {
			env.redirects.Add(1)
			env.target = target
		},
	))
	transport := client.NewAuthTransport(env.store, coord, term)
	env.client = &http.Client{Transport: transport, Timeout: 10 * time.Second}
	return env
}

func (env *testEnv) seed(t *testing.T, pair auth.Credentials) {
	t.Helper()
	require.NoError(t, env.store.Save(context.Background(), pair))
}

func (env *testEnv) storedPair(t *testing.T) *auth.Credentials {
	t.Helper()
	creds, err := env.store.Credentials(context.Background())
	require.NoError(t, err)
	return creds
}

func TestTransport_ConcurrentExpiries_SingleRefresh(t *testing.T) {
	const concurrent = 5

	var refreshCalls, protectedHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		body, _ := io.ReadAll(r.Body)
		if gjson.GetBytes(body, "refresh_token").String() != "refresh-1" {
			http.Error(w, `{"message":"unknown refresh token"}`, http.StatusUnauthorized)
			return
		}
		// Hold the exchange open long enough for every expiry to join it.
		time.Sleep(150 * time.Millisecond)
		fmt.Fprint(w, `{"access_token":"fresh","refresh_token":"refresh-2","token_type":"bearer"}`)
	})
	mux.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
		protectedHits.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			http.Error(w, `{"message":"token expired"}`, http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"items":[]}`)
	})

	env := newTestEnv(t, mux)
	env.seed(t, auth.Credentials{AccessToken: "stale", RefreshToken: "refresh-1"})

	start := make(chan struct{})
	var wg sync.WaitGroup
	statuses := make(chan int, concurrent)
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			resp, err := env.client.Get(env.server.URL + "/projects")
			if err != nil {
				t.Errorf("request failed: %v", err)
				return
			}
			defer resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}
	close(start)
	wg.Wait()
	close(statuses)

	for status := range statuses {
		assert.Equal(t, http.StatusOK, status, "every caller must succeed after the shared refresh")
	}
	assert.Equal(t, int32(1), refreshCalls.Load(), "the refresh endpoint must be hit exactly once")
	assert.Equal(t, int32(2*concurrent), protectedHits.Load(), "each request sends once, expires, and retries once")

	pair := env.storedPair(t)
	require.NotNil(t, pair)
	assert.Equal(t, auth.Credentials{AccessToken: "fresh", RefreshToken: "refresh-2"}, *pair, "both tokens must be replaced together")
	assert.Zero(t, env.redirects.Load())
}

func TestTransport_RefreshFailure_AllRejectAndOneRedirect(t *testing.T) {
	const concurrent = 5

	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		time.Sleep(100 * time.Millisecond)
		http.Error(w, `{"message":"refresh token revoked"}`, http.StatusUnauthorized)
	})
	mux.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"token expired"}`, http.StatusUnauthorized)
	})

	env := newTestEnv(t, mux)
	env.seed(t, auth.Credentials{AccessToken: "stale", RefreshToken: "refresh-1"})

	start := make(chan struct{})
	var wg sync.WaitGroup
	bodies := make(chan string, concurrent)
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			resp, err := env.client.Get(env.server.URL + "/projects")
			if err != nil {
				t.Errorf("request failed: %v", err)
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", resp.StatusCode)
			}
			body, _ := io.ReadAll(resp.Body)
			bodies <- string(body)
		}()
	}
	close(start)
	wg.Wait()
	close(bodies)

	for body := range bodies {
		assert.Contains(t, body, "token expired", "callers must see the original 401, not the refresh error")
	}
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Nil(t, env.storedPair(t), "the stored pair must be cleared on terminal failure")
	assert.Equal(t, int32(1), env.redirects.Load(), "concurrent failures must trigger exactly one redirect")
	assert.Equal(t, auth.LoginPath, env.target)
}

func TestTransport_AuthPathRejection_PassesThrough(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		fmt.Fprint(w, `{"access_token":"fresh","refresh_token":"refresh-2","token_type":"bearer"}`)
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"bad credentials"}`, http.StatusUnauthorized)
	})

	env := newTestEnv(t, mux)
	seeded := auth.Credentials{AccessToken: "stale", RefreshToken: "refresh-1"}
	env.seed(t, seeded)

	resp, err := env.client.Post(env.server.URL+"/auth/login", "application/json", strings.NewReader(`{"email":"a","password":"b"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "bad credentials", "the rejection must surface as-is")

	assert.Zero(t, refreshCalls.Load(), "a failed login must not trigger a refresh")
	assert.Zero(t, env.redirects.Load(), "a failed login must not redirect")
	pair := env.storedPair(t)
	require.NotNil(t, pair)
	assert.Equal(t, seeded, *pair, "a failed login must not touch the stored pair")
}

func TestTransport_NoRefreshToken_TerminalWithoutWireCall(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		fmt.Fprint(w, `{"access_token":"fresh","refresh_token":"refresh-2","token_type":"bearer"}`)
	})
	mux.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"token expired"}`, http.StatusUnauthorized)
	})

	env := newTestEnv(t, mux)
	env.seed(t, auth.Credentials{AccessToken: "stale"})

	resp, err := env.client.Get(env.server.URL + "/projects")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, refreshCalls.Load(), "no refresh token means no call to the refresh endpoint")
	assert.Nil(t, env.storedPair(t))
	assert.Equal(t, int32(1), env.redirects.Load())
}

func TestTransport_RetriedRequestIsNeverRetriedAgain(t *testing.T) {
	var refreshCalls, protectedHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		fmt.Fprint(w, `{"access_token":"fresh","refresh_token":"refresh-2","token_type":"bearer"}`)
	})
	mux.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
		// The server rejects even the refreshed token.
		protectedHits.Add(1)
		http.Error(w, `{"message":"token expired"}`, http.StatusUnauthorized)
	})

	env := newTestEnv(t, mux)
	env.seed(t, auth.Credentials{AccessToken: "stale", RefreshToken: "refresh-1"})

	resp, err := env.client.Get(env.server.URL + "/projects")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(2), protectedHits.Load(), "one original send plus exactly one retry")
	assert.Equal(t, int32(1), refreshCalls.Load(), "a rejected retry must not trigger another refresh")
	assert.Zero(t, env.redirects.Load(), "only a failed refresh terminates the session")

	pair := env.storedPair(t)
	require.NotNil(t, pair)
	assert.Equal(t, "fresh", pair.AccessToken, "the refreshed pair stays in place")
}

func TestTransport_CallerAuthorizationHeaderWins(t *testing.T) {
	var seen string
	mux := http.NewServeMux()
	mux.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		fmt.Fprint(w, `{}`)
	})

	env := newTestEnv(t, mux)
	env.seed(t, auth.Credentials{AccessToken: "stored", RefreshToken: "refresh-1"})

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/projects", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer caller-supplied")

	resp, err := env.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer caller-supplied", seen, "an explicit Authorization header must not be overwritten")
}

func TestTransport_NoStoredPair_SendsUnauthenticated(t *testing.T) {
	var seen atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("/public", func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get("Authorization"))
		fmt.Fprint(w, `{}`)
	})

	env := newTestEnv(t, mux)

	resp, err := env.client.Get(env.server.URL + "/public")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "", seen.Load(), "no stored pair means no Authorization header")
}

func TestTransport_RetryReplaysBodyAndKeepsRequestID(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	var requestIDs []string

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"fresh","refresh_token":"refresh-2","token_type":"bearer"}`)
	})
	mux.HandleFunc("/documents", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(body))
		requestIDs = append(requestIDs, r.Header.Get("X-Request-ID"))
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer fresh" {
			http.Error(w, `{"message":"token expired"}`, http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	env := newTestEnv(t, mux)
	env.seed(t, auth.Credentials{AccessToken: "stale", RefreshToken: "refresh-1"})

	resp, err := env.client.Post(env.server.URL+"/documents", "application/json", strings.NewReader(`{"kind":"invoice"}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, bodies, 2)
	assert.Equal(t, `{"kind":"invoice"}`, bodies[0])
	assert.Equal(t, `{"kind":"invoice"}`, bodies[1], "the retry must carry the full original body")
	require.Len(t, requestIDs, 2)
	assert.NotEmpty(t, requestIDs[0])
	assert.Equal(t, requestIDs[0], requestIDs[1], "the retry is the same logical request")
}

func TestTransport_TransportErrorNeverTriggersRefresh(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		fmt.Fprint(w, `{"access_token":"fresh","refresh_token":"refresh-2","token_type":"bearer"}`)
	})

	env := newTestEnv(t, mux)
	env.seed(t, auth.Credentials{AccessToken: "stale", RefreshToken: "refresh-1"})

	// Swap in a base transport that fails before reaching the network.
	failing := client.NewAuthTransport(env.store, failingRefresher{t: t}, nopEnder{},
		client.WithBaseTransport(roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return nil, fmt.Errorf("connection reset")
		})))
	httpClient := &http.Client{Transport: failing}

	_, err := httpClient.Get(env.server.URL + "/projects")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Zero(t, refreshCalls.Load())
}

// failingRefresher fails the test if the transport asks for a refresh.
type failingRefresher struct{ t *testing.T }

func (f failingRefresher) EnsureFresh(context.Context) (string, error) {
	f.t.Error("refresh must not run for transport-level failures")
	return "", fmt.Errorf("unexpected refresh")
}

// nopEnder ignores termination requests.
type nopEnder struct{}

func (nopEnder) Terminate(context.Context, error) {}
