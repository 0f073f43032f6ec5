package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pharmadash/internal/modules/datamanager/application/port"
	"pharmadash/internal/modules/datamanager/domain"
)

func productsQuery() domain.ListingQuery {
	return domain.ListingQuery{Endpoint: "products", Page: 1, OrderBy: "id", OrderByDirection: domain.SortDesc}
}

func TestListingLoader_DeduplicatesConcurrentRequests(t *testing.T) {
	t.Parallel()

	backend := newMemoryBackend("Aspirin", "Ibuprofen")
	backend.gate = make(chan struct{})
	loader := NewListingLoader(backend, NewMemoryListingCache(0))

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			listing, err := loader.Load(context.Background(), "tenant-1", "token", productsQuery())
			if err == nil && len(listing.Data) != 2 {
				err = errors.New("unexpected row count")
			}
			errs <- err
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(backend.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := backend.fetches.Load(); got != 1 {
		t.Fatalf("expected 1 backend call, got %d", got)
	}
}

func TestListingLoader_InvalidateForcesRefetch(t *testing.T) {
	t.Parallel()

	backend := newMemoryBackend("Aspirin")
	loader := NewListingLoader(backend, NewMemoryListingCache(0))
	ctx := context.Background()

	if _, err := loader.Load(ctx, "tenant-1", "token", productsQuery()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := loader.Load(ctx, "tenant-1", "token", productsQuery()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := backend.fetches.Load(); got != 1 {
		t.Fatalf("expected cached second load, got %d calls", got)
	}

	if removed := loader.Invalidate("/Products/"); removed != 1 {
		t.Fatalf("expected 1 entry removed, got %d", removed)
	}
	if _, err := loader.Load(ctx, "tenant-1", "token", productsQuery()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := backend.fetches.Load(); got != 2 {
		t.Fatalf("expected refetch after invalidation, got %d calls", got)
	}
}

func TestListingLoader_InvalidationDuringFlightIsNotCached(t *testing.T) {
	t.Parallel()

	backend := newMemoryBackend("Aspirin")
	backend.gate = make(chan struct{})
	backend.started = make(chan struct{}, 1)
	cache := NewMemoryListingCache(0)
	loader := NewListingLoader(backend, cache)

	done := make(chan error, 1)
	go func() {
		_, err := loader.Load(context.Background(), "tenant-1", "token", productsQuery())
		done <- err
	}()
	<-backend.started
	loader.Invalidate("products")
	close(backend.gate)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := cache.Get("tenant-1", productsQuery()); ok {
		t.Fatal("expected response fetched before invalidation to be discarded")
	}
}

func TestListingLoader_RejectsEmptyEndpoint(t *testing.T) {
	t.Parallel()

	loader := NewListingLoader(newMemoryBackend(), nil)
	if _, err := loader.Load(context.Background(), "tenant", "token", domain.ListingQuery{Endpoint: " / "}); !errors.Is(err, port.ErrEndpointUnsupported) {
		t.Fatalf("expected ErrEndpointUnsupported, got %v", err)
	}
}

func TestListingLoader_CallerCancellation(t *testing.T) {
	t.Parallel()

	backend := newMemoryBackend("Aspirin")
	backend.gate = make(chan struct{})
	defer close(backend.gate)
	loader := NewListingLoader(backend, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := loader.Load(ctx, "tenant", "token", productsQuery()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMemoryListingCache_ScopesAndTTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cache := NewMemoryListingCache(time.Minute)
	cache.now = func() time.Time { return now }

	listing := &domain.Listing{Data: []domain.Entity{{"id": float64(1)}}}
	cache.Set("tenant-a", productsQuery(), listing)
	cache.Set("tenant-b", productsQuery(), listing)

	got, ok := cache.Get("tenant-a", productsQuery())
	if !ok || len(got.Data) != 1 {
		t.Fatalf("expected cached listing, got %#v (%v)", got, ok)
	}
	got.Data[0] = domain.Entity{"id": float64(99)}
	again, _ := cache.Get("tenant-a", productsQuery())
	if id, _ := again.Data[0].ID(); id != 1 {
		t.Fatalf("expected cache to hand out copies, got id %d", id)
	}
	if _, ok := cache.Get("tenant-c", productsQuery()); ok {
		t.Fatal("expected scopes to be isolated")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := cache.Get("tenant-a", productsQuery()); ok {
		t.Fatal("expected entry to be stale after the TTL")
	}

	if got := len(cache.entries["products"]); got != 1 {
		t.Fatalf("expected the stale entry to be evicted on read, got %d entries", got)
	}
	if removed := cache.Invalidate("products"); removed != 1 {
		t.Fatalf("expected the remaining scope invalidated, got %d", removed)
	}
	if endpoints := cache.Endpoints(); len(endpoints) != 0 {
		t.Fatalf("expected empty cache, got %v", endpoints)
	}
}

func TestMemoryListingCache_SetPrunesExpiredEntries(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cache := NewMemoryListingCache(time.Minute)
	cache.now = func() time.Time { return now }

	listing := &domain.Listing{Data: []domain.Entity{{"id": float64(1)}}}
	for _, search := range []string{"asp", "ibu", "par"} {
		query := productsQuery()
		query.Filters = map[string]string{"search": search}
		cache.Set("tenant-a", query, listing)
	}
	if got := len(cache.entries["products"]); got != 3 {
		t.Fatalf("expected 3 entries, got %d", got)
	}

	now = now.Add(2 * time.Minute)
	cache.Set("tenant-a", productsQuery(), listing)
	if got := len(cache.entries["products"]); got != 1 {
		t.Fatalf("expected expired entries pruned on write, got %d", got)
	}
	if _, ok := cache.Get("tenant-a", productsQuery()); !ok {
		t.Fatal("expected the fresh entry to survive")
	}
}
