package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshTimeout bounds a single refresh round trip.
const DefaultRefreshTimeout = 15 * time.Second

// refreshKey is the fixed single-flight key: one slot, one in-flight refresh.
const refreshKey = "refresh"

// Coordinator deduplicates concurrent refresh attempts into a single
// in-flight operation and fans its outcome out to every waiter. At most one
// refresh call is on the wire at any instant; the slot is released as soon
// as the operation resolves, so a later expiry starts a fresh one.
type Coordinator struct {
	store     Store
	refresher Refresher
	timeout   time.Duration

	group singleflight.Group
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithRefreshTimeout overrides the bound on a single refresh round trip.
func WithRefreshTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewCoordinator is the constructor for the refresh coordinator.
func NewCoordinator(store Store, refresher Refresher, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:     store,
		refresher: refresher,
		timeout:   DefaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureFresh returns an access token issued by a refresh that completed
// after this call began. Concurrent callers share one refresh round trip
// and all observe the same outcome. The refresh itself runs detached from
// the calling context, so a caller that gives up does not cancel the
// operation for the remaining waiters; the abandoning caller unblocks with
// ctx.Err() while the refresh completes in the background.
func (c *Coordinator) EnsureFresh(ctx context.Context) (string, error) {
	ch := c.group.DoChan(refreshKey, func() (interface{}, error) {
		return c.refreshOnce()
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			log.Debug().Msg("Joined an in-flight credential refresh")
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// refreshOnce performs the single wire exchange behind the single-flight
// slot: read the stored pair, trade the refresh token for a new pair,
// persist the new pair whole, and hand back the fresh access token.
func (c *Coordinator) refreshOnce() (interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	creds, err := c.store.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored credentials: %w", err)
	}
	if creds == nil {
		return nil, ErrNoCredentials
	}
	if creds.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	log.Info().Msg("Refreshing session credentials")
	fresh, err := c.refresher.Refresh(ctx, creds.RefreshToken)
	if err != nil {
		log.Error().Err(err).Msg("Credential refresh failed")
		return nil, err
	}

	if err := c.store.Save(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to save refreshed credentials: %w", err)
	}

	log.Info().Msg("Session credentials refreshed")
	return fresh.AccessToken, nil
}
