package repository

import "context"

// FetcherRepository defines the contract for retrieving the raw source page.
type FetcherRepository interface {
	// Fetch returns the document body found at sourceURL. Failures are
	// wrapped in entity.ErrNetwork.
	Fetch(ctx context.Context, sourceURL string) (string, error)
}
