package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"
)

// ListDocuments pages through the document listing and returns every
// document of the given kind. An empty kind lists all kinds.
func (c *Client) ListDocuments(ctx context.Context, kind string, pageSize int) ([]Document, error) {
	if pageSize <= 0 {
		pageSize = 100
	}

	var documents []Document
	cursor := ""
	for {
		path := fmt.Sprintf("/documents?limit=%d", pageSize)
		if kind != "" {
			path += "&kind=" + url.QueryEscape(kind)
		}
		if cursor != "" {
			path += "&cursor=" + url.QueryEscape(cursor)
		}

		var page documentPage
		if err := c.GetJSON(ctx, path, &page); err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}
		documents = append(documents, page.Items...)

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	log.Info().Int("count", len(documents)).Str("kind", kind).Msg("Fetched document listing")
	return documents, nil
}

// FetchDocument retrieves a single document's metadata.
func (c *Client) FetchDocument(ctx context.Context, id string) (*Document, error) {
	var document Document
	if err := c.GetJSON(ctx, "/documents/"+url.PathEscape(id), &document); err != nil {
		return nil, err
	}
	return &document, nil
}
