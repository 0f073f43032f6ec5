package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"pharmadash/internal/modules/datamanager/domain"
)

// memoryBackend is a tiny in-process stand-in for the REST backend.
type memoryBackend struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[int64]domain.Entity
	deleted map[int64]bool

	fetches   atomic.Int32
	mutations atomic.Int32
	failNext  error
	gate      chan struct{}
	started   chan struct{}
	lastBody  domain.Entity
	lastIDs   []int64
}

func newMemoryBackend(names ...string) *memoryBackend {
	backend := &memoryBackend{rows: map[int64]domain.Entity{}, deleted: map[int64]bool{}}
	for _, name := range names {
		backend.insert(domain.Entity{"name": name, "active": true})
	}
	return backend
}

func (b *memoryBackend) insert(body domain.Entity) domain.Entity {
	b.nextID++
	row := body.Clone()
	row["id"] = float64(b.nextID)
	b.rows[b.nextID] = row
	return row.Clone()
}

func (b *memoryBackend) FetchListing(ctx context.Context, token string, query domain.ListingQuery) (*domain.Listing, error) {
	b.fetches.Add(1)
	if b.started != nil {
		select {
		case b.started <- struct{}{}:
		default:
		}
	}
	if b.gate != nil {
		<-b.gate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	rows := []domain.Entity{}
	for id := int64(1); id <= b.nextID; id++ {
		row, ok := b.rows[id]
		if !ok || b.deleted[id] != query.ShowingDeleted {
			continue
		}
		rows = append(rows, row.Clone())
	}
	return &domain.Listing{Data: rows, Meta: domain.PaginationMeta{CurrentPage: 1, LastPage: 1, PerPage: domain.ListingPageSize, Total: len(rows)}}, nil
}

func (b *memoryBackend) takeFailure() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mutations.Add(1)
	err := b.failNext
	b.failNext = nil
	return err
}

func (b *memoryBackend) Create(ctx context.Context, token, endpoint string, body domain.Entity) (domain.Entity, error) {
	if err := b.takeFailure(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastBody = body.Clone()
	return b.insert(body), nil
}

func (b *memoryBackend) Update(ctx context.Context, token, endpoint string, id int64, body domain.Entity) (domain.Entity, error) {
	if err := b.takeFailure(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	row, ok := b.rows[id]
	if !ok {
		return nil, errors.New("not found")
	}
	for key, value := range body {
		row[key] = value
	}
	b.lastBody = body.Clone()
	return row.Clone(), nil
}

func (b *memoryBackend) mark(ids []int64, deleted bool) error {
	if err := b.takeFailure(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastIDs = append([]int64(nil), ids...)
	for _, id := range ids {
		if _, ok := b.rows[id]; ok {
			b.deleted[id] = deleted
		}
	}
	return nil
}

func (b *memoryBackend) SoftDelete(ctx context.Context, token, endpoint string, ids []int64) error {
	return b.mark(ids, true)
}

func (b *memoryBackend) Restore(ctx context.Context, token, endpoint string, ids []int64) error {
	return b.mark(ids, false)
}

func (b *memoryBackend) ForceDelete(ctx context.Context, token, endpoint string, ids []int64) error {
	if err := b.takeFailure(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range ids {
		delete(b.rows, id)
		delete(b.deleted, id)
	}
	return nil
}

func (b *memoryBackend) SetActive(ctx context.Context, token, endpoint string, id int64, active bool) error {
	if err := b.takeFailure(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if row, ok := b.rows[id]; ok {
		row["active"] = active
	}
	return nil
}

type stubConfirmer struct {
	answer  bool
	prompts []domain.ConfirmationPrompt
}

func (c *stubConfirmer) Confirm(ctx context.Context, prompt domain.ConfirmationPrompt) (bool, error) {
	c.prompts = append(c.prompts, prompt)
	return c.answer, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	results []domain.MutationResult
}

func (n *recordingNotifier) Notify(ctx context.Context, result domain.MutationResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, result)
}

func (n *recordingNotifier) last() domain.MutationResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.results) == 0 {
		return domain.MutationResult{}
	}
	return n.results[len(n.results)-1]
}

type stubLookups map[string][]domain.Entity

func (s stubLookups) FetchLookup(ctx context.Context, token, path string) ([]domain.Entity, error) {
	rows, ok := s[path]
	if !ok {
		return nil, errors.New("lookup unavailable")
	}
	return rows, nil
}
