package cmd

import (
	"context"

	"github.com/kontorlabs/kontor/auth"
	"github.com/kontorlabs/kontor/db"
)

// repoStore adapts a db.CredentialRepository to the auth.Store interface.
type repoStore struct{ repo db.CredentialRepository }

func (s *repoStore) Credentials(ctx context.Context) (*auth.Credentials, error) {
	record, err := s.repo.Get(ctx)
	if err != nil || record == nil {
		return nil, err
	}
	creds := auth.Credentials{
		AccessToken:  record.AccessToken,
		RefreshToken: record.RefreshToken,
	}
	if creds.IsZero() {
		// A row with both tokens blanked means no session.
		return nil, nil
	}
	return &creds, nil
}

func (s *repoStore) Save(ctx context.Context, creds auth.Credentials) error {
	return s.repo.Upsert(ctx, &db.CredentialRecord{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	})
}

func (s *repoStore) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}
