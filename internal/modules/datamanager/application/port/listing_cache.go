package port

import "pharmadash/internal/modules/datamanager/domain"

// ListingCache stores fetched listings per tenant scope and canonical query key.
type ListingCache interface {
	Get(scope string, query domain.ListingQuery) (*domain.Listing, bool)
	Set(scope string, query domain.ListingQuery, listing *domain.Listing)
	// Invalidate drops every entry of endpoint, across scopes, and returns how many were removed.
	Invalidate(endpoint string) int
}
