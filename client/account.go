package client

import (
	"context"

	"github.com/rs/zerolog/log"
)

// FetchAccount retrieves the authenticated principal from the platform.
func (c *Client) FetchAccount(ctx context.Context) (*Account, error) {
	var account Account
	if err := c.GetJSON(ctx, "/account", &account); err != nil {
		return nil, err
	}
	log.Debug().Str("account", account.Email).Msg("Fetched account details")
	return &account, nil
}
