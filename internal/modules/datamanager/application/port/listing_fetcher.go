package port

import (
	"context"
	"errors"

	"pharmadash/internal/modules/datamanager/domain"
)

var (
	ErrListingForbidden    = errors.New("listing forbidden")
	ErrListingNotFound     = errors.New("listing not found")
	ErrListingUnauthorized = errors.New("listing unauthorized")
	ErrEndpointUnsupported = errors.New("listing endpoint unsupported")
)

// ListingFetcher retrieves the whole collection of an endpoint in canonical {data, meta} shape.
type ListingFetcher interface {
	FetchListing(ctx context.Context, token string, query domain.ListingQuery) (*domain.Listing, error)
}

// LookupFetcher retrieves an auxiliary reference list ("additional data").
type LookupFetcher interface {
	FetchLookup(ctx context.Context, token, path string) ([]domain.Entity, error)
}
