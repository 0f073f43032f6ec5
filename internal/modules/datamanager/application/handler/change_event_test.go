package handler

import (
	"context"
	"sync"
	"testing"
	"time"

	"pharmadash/internal/modules/datamanager/application/usecase"
	"pharmadash/internal/modules/datamanager/domain"
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []*domain.Message
}

func (b *recordingBroadcaster) Broadcast(ctx context.Context, msg *domain.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
}

type staticFetcher struct{ calls int }

func (f *staticFetcher) FetchListing(ctx context.Context, token string, query domain.ListingQuery) (*domain.Listing, error) {
	f.calls++
	return &domain.Listing{Data: []domain.Entity{{"id": float64(1)}}}, nil
}

func TestChangeEventHandler_InvalidatesAndBroadcasts(t *testing.T) {
	t.Parallel()

	fetcher := &staticFetcher{}
	loader := usecase.NewListingLoader(fetcher, nil)
	query := domain.ListingQuery{Endpoint: "products", Page: 1}
	if _, err := loader.Load(context.Background(), "tenant", "", query); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	broadcaster := &recordingBroadcaster{}
	h := NewChangeEventHandler("pharma.products", "", []string{"Created", "updated"}, loader, nil, usecase.NewBroadcastUseCase(broadcaster))
	if h.Topic() != "pharma.products" {
		t.Fatalf("expected topic pharma.products, got %s", h.Topic())
	}

	if err := h.Handle(context.Background(), &domain.Message{Entity: "product", Action: "viewed"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(broadcaster.messages) != 0 {
		t.Fatalf("expected filtered action to be ignored, got %d messages", len(broadcaster.messages))
	}

	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	if err := h.Handle(context.Background(), &domain.Message{Entity: "Products", Action: "UPDATED", Timestamp: at}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(broadcaster.messages) != 1 {
		t.Fatalf("expected 1 invalidation message, got %d", len(broadcaster.messages))
	}
	msg := broadcaster.messages[0]
	if msg.Topic != domain.TopicListingInvalidated || msg.Entity != "products" || !msg.Timestamp.Equal(at) {
		t.Fatalf("unexpected invalidation message %+v", msg)
	}

	if _, err := loader.Load(context.Background(), "tenant", "", query); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.calls != 2 {
		t.Fatalf("expected refetch after change event, got %d calls", fetcher.calls)
	}
}

func TestChangeEventHandler_MissingEntity(t *testing.T) {
	t.Parallel()

	broadcaster := &recordingBroadcaster{}
	h := NewChangeEventHandler("pharma.events", "", nil, nil, nil, usecase.NewBroadcastUseCase(broadcaster))
	if err := h.Handle(context.Background(), &domain.Message{Action: "created"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(broadcaster.messages) != 0 {
		t.Fatalf("expected nothing broadcast, got %d", len(broadcaster.messages))
	}
}

func TestChangeEventHandler_ReloadsLiveManagers(t *testing.T) {
	t.Parallel()

	fetcher := &staticFetcher{}
	loader := usecase.NewListingLoader(fetcher, usecase.NewMemoryListingCache(0))
	catalog := domain.NewScreenCatalog([]domain.ScreenConfig{{Endpoint: "products", Title: "Products"}})
	registry := usecase.NewManagerRegistry(catalog, usecase.Dependencies{Loader: loader})

	manager, err := registry.Manager(usecase.Session{UserID: "u-1", SessionID: "s-1"}, "products")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := manager.Open(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h := NewChangeEventHandler("pharma.products", "products", nil, loader, registry, usecase.NewBroadcastUseCase(&recordingBroadcaster{}))
	if err := h.Handle(context.Background(), &domain.Message{Action: "deleted"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.calls != 2 {
		t.Fatalf("expected the open manager to refetch, got %d calls", fetcher.calls)
	}
	if rows := manager.View().Rows; len(rows) != 1 {
		t.Fatalf("expected reloaded rows, got %v", rows)
	}
}
