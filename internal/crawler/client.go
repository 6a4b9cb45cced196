// Package crawler retrieves the source document for a run.
package crawler

import (
	"context"
	"fmt"

	"gdpetl/internal/config"
	"gdpetl/internal/models"
)

// Client picks the configured source and reads it through the scraper.
type Client struct {
	scraper *Scraper
}

// NewClientFromConfig builds a client whose scraper honours the source and
// advanced settings.
func NewClientFromConfig(cfg *config.Config) *Client {
	return NewClientWithDeps(NewScraperWithOptions(Options{
		UserAgent:    cfg.Source.UserAgent,
		Timeout:      cfg.Source.GetTimeout(),
		BufferSizeKb: cfg.Advanced.BufferSizeKb,
	}))
}

// NewClientWithDeps creates a new crawler client with an injected scraper.
func NewClientWithDeps(scraper *Scraper) *Client {
	return &Client{scraper: scraper}
}

// Retrieve returns the raw document for src, reading the local file when
// one is configured and fetching the URL otherwise.
func (c *Client) Retrieve(ctx context.Context, src config.SourceConfig) (*models.RawDocument, error) {
	if src.IsLocalFile() {
		doc, err := c.scraper.ReadLocalFile(src.File)
		if err != nil {
			return nil, fmt.Errorf("failed to read source: %w", err)
		}

		return doc, nil
	}

	doc, err := c.scraper.Fetch(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source: %w", err)
	}

	return doc, nil
}
