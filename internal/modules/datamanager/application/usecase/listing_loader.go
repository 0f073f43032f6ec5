package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"pharmadash/internal/modules/datamanager/application/port"
	"pharmadash/internal/modules/datamanager/domain"
)

// ListingLoader answers listing requests from the cache and collapses concurrent identical
// fetches into one backend call.
type ListingLoader struct {
	fetcher port.ListingFetcher
	cache   port.ListingCache
	group   singleflight.Group

	mu     sync.Mutex
	epochs map[string]uint64
}

func NewListingLoader(fetcher port.ListingFetcher, cache port.ListingCache) *ListingLoader {
	if cache == nil {
		cache = NewMemoryListingCache(0)
	}
	return &ListingLoader{
		fetcher: fetcher,
		cache:   cache,
		epochs:  make(map[string]uint64),
	}
}

// Load returns the listing of query for the tenant scope. Callers receive their own copy.
func (l *ListingLoader) Load(ctx context.Context, scope, token string, query domain.ListingQuery) (*domain.Listing, error) {
	normalized := query.Normalize()
	if normalized.Endpoint == "" {
		return nil, port.ErrEndpointUnsupported
	}
	if cached, ok := l.cache.Get(scope, normalized); ok {
		slog.Debug("listing-loader cache hit", slog.String("scope", scope), slog.String("queryKey", normalized.CanonicalKey()))
		return cached, nil
	}

	epoch := l.epoch(normalized.Endpoint)
	flightKey := cacheEntryKey(scope, normalized) + cacheDelimiter + strconv.FormatUint(epoch, 10)

	ch := l.group.DoChan(flightKey, func() (any, error) {
		slog.Debug("listing-loader fetching", slog.String("scope", scope), slog.String("queryKey", normalized.CanonicalKey()))
		// the flight is shared by every waiter, so it must outlive the first caller's context
		listing, err := l.fetcher.FetchListing(context.WithoutCancel(ctx), token, normalized)
		if err != nil {
			return nil, err
		}
		if listing == nil {
			listing = domain.EmptyListing()
		}
		if !l.storeIfCurrent(scope, normalized, listing, epoch) {
			slog.Debug("listing-loader dropping stale response", slog.String("endpoint", normalized.Endpoint))
		}
		return listing, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-ch:
		if result.Err != nil {
			return nil, fmt.Errorf("load listing %s: %w", normalized.Endpoint, result.Err)
		}
		listing, _ := result.Val.(*domain.Listing)
		return listing.Clone(), nil
	}
}

// Invalidate drops the cached listings of endpoint. Fetches already in flight for it will
// not repopulate the cache.
func (l *ListingLoader) Invalidate(endpoint string) int {
	key := cacheEndpoint(endpoint)
	l.mu.Lock()
	l.epochs[key]++
	removed := l.cache.Invalidate(key)
	l.mu.Unlock()
	slog.Debug("listing-loader invalidated", slog.String("endpoint", key), slog.Int("entries", removed))
	return removed
}

func (l *ListingLoader) storeIfCurrent(scope string, query domain.ListingQuery, listing *domain.Listing, epoch uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.epochs[cacheEndpoint(query.Endpoint)] != epoch {
		return false
	}
	l.cache.Set(scope, query, listing)
	return true
}

func (l *ListingLoader) epoch(endpoint string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.epochs[cacheEndpoint(endpoint)]
}
