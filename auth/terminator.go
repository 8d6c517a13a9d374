package auth

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Public surfaces a terminated session is sent to, and must never be
// redirected away from.
const (
	LoginPath    = "/login"
	RegisterPath = "/register"
)

// Terminator ends the local session after an unrecoverable auth failure:
// it clears the credential store and moves the embedding surface to the
// login route at most once per session generation, so a burst of
// concurrently failing requests cannot trigger a redirect storm.
type Terminator struct {
	store Store

	locate   func() string
	redirect func(target string)

	mu    sync.Mutex
	fired bool
}

// TerminatorOption configures a Terminator.
type TerminatorOption func(*Terminator)

// WithNavigation supplies the embedding surface's location and redirect
// hooks. Without them Terminate still clears the store and logs; nothing
// is navigated.
func WithNavigation(locate func() string, redirect func(target string)) TerminatorOption {
	return func(t *Terminator) {
		t.locate = locate
		t.redirect = redirect
	}
}

// NewTerminator is the constructor for the session terminator.
func NewTerminator(store Store, opts ...TerminatorOption) *Terminator {
	t := &Terminator{store: store}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Terminate clears the stored credentials and, unless the surface is
// already public or a redirect already fired for this session generation,
// redirects to the login surface. Safe to call concurrently; terminating
// an already-terminated session only re-clears the store.
func (t *Terminator) Terminate(ctx context.Context, reason error) {
	if err := t.store.Clear(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to clear credentials while terminating session")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fired {
		return
	}
	if t.locate != nil {
		if loc := t.locate(); loc == LoginPath || loc == RegisterPath {
			// Already on a public surface; keep the latch armed in case
			// the surface changes before re-authentication happens.
			return
		}
	}
	t.fired = true

	log.Warn().Err(reason).Msg("Session terminated, re-authentication required")
	if t.redirect != nil {
		t.redirect(LoginPath)
	}
}

// Reset re-arms the terminator. Call it when a new session is established,
// so a later terminal failure redirects again.
func (t *Terminator) Reset() {
	t.mu.Lock()
	t.fired = false
	t.mu.Unlock()
}
