package auth

import "context"

// Credentials is the access/refresh token pair that represents an
// authenticated session. The pair is always replaced as a whole; no
// component updates one token without the other.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IsZero reports whether the pair carries no tokens at all.
func (c Credentials) IsZero() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Store defines the contract for any component that can hold the current
// credential pair. Absence of a stored pair is a normal state, reported as
// (nil, nil), not an error.
type Store interface {
	// Credentials returns the stored pair, or nil when none is stored.
	Credentials(ctx context.Context) (*Credentials, error)
	// Save replaces the stored pair as a whole. A reader must observe
	// either the previous pair or the new one, never a mix.
	Save(ctx context.Context, creds Credentials) error
	// Clear removes the stored pair. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}

// Refresher defines the contract for any component that can exchange a
// refresh token for a new credential pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (Credentials, error)
}
