package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pharmadash/internal/modules/datamanager/application/port"
	"pharmadash/internal/modules/datamanager/domain"
)

const lookupConcurrency = 4

// Dependencies are the collaborators shared by every DataManager of a process.
type Dependencies struct {
	Loader    *ListingLoader
	Lookups   port.LookupFetcher
	Mutator   port.EntityMutator
	Confirmer port.Confirmer
	Notifier  port.Notifier
	Now       func() time.Time
	NewID     func() string
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return d
}

// View is the derived state a screen renders.
type View struct {
	Endpoint          string                `json:"endpoint"`
	Title             string                `json:"title"`
	Search            string                `json:"search"`
	Filters           map[string]string     `json:"filters"`
	OrderBy           string                `json:"orderBy"`
	OrderByDirection  domain.SortDirection  `json:"orderByDirection"`
	Page              int                   `json:"page"`
	PerPage           int                   `json:"perPage"`
	ShowingDeleted    bool                  `json:"showingDeleted"`
	Rows              []domain.Entity       `json:"rows"`
	Meta              domain.PaginationMeta `json:"meta"`
	Loading           bool                  `json:"loading"`
	Loaded            bool                  `json:"loaded"`
	Error             string                `json:"error,omitempty"`
	Selected          []int64               `json:"selected"`
	AllOnPageSelected bool                  `json:"allOnPageSelected"`
	Columns           []domain.Column       `json:"columns"`
	FilterFields      []domain.FilterField  `json:"filterFields"`
	FormFields        []domain.FormField    `json:"formFields,omitempty"`
	Editing           domain.Entity         `json:"editing,omitempty"`
	EditOpen          bool                  `json:"editOpen"`
}

// DataManager is the listing and mutation engine of one screen for one session.
type DataManager struct {
	screen  domain.ScreenConfig
	session Session
	deps    Dependencies

	mu             sync.Mutex
	filters        map[string]string
	orderBy        string
	direction      domain.SortDirection
	page           int
	showingDeleted bool
	listing        *domain.Listing
	loaded         bool
	inflight       int
	lastErr        error
	lookups        []domain.Lookup
	opened         bool
	selection      *domain.Selection
	editing        domain.Entity
	editOpen       bool
}

func NewDataManager(screen domain.ScreenConfig, session Session, deps Dependencies) *DataManager {
	screen = screen.Normalize()
	m := &DataManager{
		screen:    screen,
		session:   session,
		deps:      deps.withDefaults(),
		filters:   copyFilters(screen.DefaultFilters),
		orderBy:   domain.DefaultOrderBy,
		direction: domain.SortDesc,
		page:      1,
		selection: domain.NewSelection(),
	}
	return m
}

func (m *DataManager) Screen() domain.ScreenConfig { return m.screen }

func (m *DataManager) currentSession() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

func (m *DataManager) queryLocked() domain.ListingQuery {
	return domain.ListingQuery{
		Endpoint:         m.screen.Endpoint,
		Page:             m.page,
		ShowingDeleted:   m.showingDeleted,
		OrderBy:          m.orderBy,
		OrderByDirection: m.direction,
		Filters:          copyFilters(m.filters),
	}.Normalize()
}

// Load fetches the listing of the current state. A response whose parameters were superseded
// while it was in flight is not applied.
func (m *DataManager) Load(ctx context.Context) error {
	if m.deps.Loader == nil {
		return fmt.Errorf("data manager %s: %w", m.screen.Endpoint, port.ErrEndpointUnsupported)
	}
	m.mu.Lock()
	query := m.queryLocked()
	key := query.CanonicalKey()
	m.inflight++
	m.mu.Unlock()

	listing, err := m.deps.Loader.Load(ctx, m.currentSession().cacheScope(), m.currentSession().Token, query)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inflight--
	if current := m.queryLocked().CanonicalKey(); current != key {
		slog.Debug("data-manager discarding superseded listing", slog.String("endpoint", m.screen.Endpoint), slog.String("queryKey", key))
		return nil
	}
	if err != nil {
		slog.Warn("data-manager listing failed", slog.String("endpoint", m.screen.Endpoint), slog.Any("error", err))
		m.lastErr = err
		return err
	}
	m.listing = listing
	m.loaded = true
	m.lastErr = nil
	return nil
}

// Open prepares a screen on first use: lookups are fetched once, the listing whenever none was
// applied yet.
func (m *DataManager) Open(ctx context.Context) error {
	m.mu.Lock()
	first := !m.opened
	m.opened = true
	loaded := m.loaded
	m.mu.Unlock()

	if first {
		m.LoadAdditionalData(ctx)
	}
	if loaded {
		return nil
	}
	return m.Load(ctx)
}

// LoadAdditionalData fetches every lookup source concurrently. A failing source degrades to
// an empty list.
func (m *DataManager) LoadAdditionalData(ctx context.Context) {
	sources := m.screen.AdditionalData
	if len(sources) == 0 || m.deps.Lookups == nil {
		return
	}
	lookups := make([]domain.Lookup, len(sources))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(lookupConcurrency)
	for index, source := range sources {
		group.Go(func() error {
			lookups[index] = domain.Lookup{Key: source.Key, Label: source.Label, Rows: []domain.Entity{}}
			rows, err := m.deps.Lookups.FetchLookup(groupCtx, m.currentSession().Token, source.Path)
			if err != nil {
				slog.Warn("data-manager lookup failed", slog.String("endpoint", m.screen.Endpoint), slog.String("lookup", source.Key), slog.Any("error", err))
				return nil
			}
			lookups[index].Rows = rows
			return nil
		})
	}
	_ = group.Wait()

	m.mu.Lock()
	m.lookups = lookups
	m.mu.Unlock()
}

// Lookups returns the loaded additional data.
func (m *DataManager) Lookups() []domain.Lookup {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]domain.Lookup, len(m.lookups))
	copy(result, m.lookups)
	return result
}

// View derives the visible page from the last applied listing and the current state.
func (m *DataManager) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	source := m.screen.InitialData
	if m.loaded && m.listing != nil {
		source = m.listing.Data
	}
	filters := copyFilters(m.filters)
	page := domain.Derive(source, filters, m.orderBy, m.direction, m.page, m.screen.PerPage)
	pageIDs := domain.EntityIDs(page.Rows)

	view := View{
		Endpoint:          m.screen.Endpoint,
		Title:             m.screen.Title,
		Search:            m.filters[domain.SearchFilterKey],
		Filters:           filters,
		OrderBy:           m.orderBy,
		OrderByDirection:  m.direction,
		Page:              m.page,
		PerPage:           m.screen.PerPage,
		ShowingDeleted:    m.showingDeleted,
		Rows:              page.Rows,
		Meta:              page.Meta,
		Loading:           m.inflight > 0,
		Loaded:            m.loaded,
		Selected:          m.selection.IDs(),
		AllOnPageSelected: m.selection.ContainsAll(pageIDs),
		Columns:           m.screen.Columns,
		FilterFields:      m.filterFieldsLocked(),
		FormFields:        m.screen.FormFields,
		EditOpen:          m.editOpen,
	}
	if m.lastErr != nil {
		view.Error = m.lastErr.Error()
	}
	if m.editOpen {
		view.Editing = m.editing.Clone()
	}
	return view
}

// FilterFields returns the explicit filters of the screen or the generated ones.
func (m *DataManager) FilterFields() []domain.FilterField {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterFieldsLocked()
}

func (m *DataManager) filterFieldsLocked() []domain.FilterField {
	if len(m.screen.AvailableFilters) > 0 {
		return m.screen.AvailableFilters
	}
	return domain.GenerateDynamicFilters(m.screen.Columns, m.lookups, m.screen.LookupMap)
}

func (m *DataManager) SetSearch(term string) {
	m.SetFilter(domain.SearchFilterKey, term)
}

// SetFilter sets one filter; an empty value removes it. The page returns to 1.
func (m *DataManager) SetFilter(key, value string) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.TrimSpace(value) == "" {
		delete(m.filters, key)
	} else {
		if m.filters == nil {
			m.filters = map[string]string{}
		}
		m.filters[key] = value
	}
	m.page = 1
}

// ResetFilters clears every filter and restores the default sort and first page.
func (m *DataManager) ResetFilters() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = map[string]string{}
	m.orderBy = domain.DefaultOrderBy
	m.direction = domain.SortDesc
	m.page = 1
}

// SortBy sorts by column, toggling the direction when the column is already active.
func (m *DataManager) SortBy(column string) {
	column = strings.TrimSpace(column)
	if column == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if column == m.orderBy {
		m.direction = m.direction.Toggle()
		return
	}
	m.orderBy = column
	m.direction = domain.SortAsc
}

// SetSort sets column and direction explicitly.
func (m *DataManager) SetSort(column string, direction domain.SortDirection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if column = strings.TrimSpace(column); column == "" {
		column = domain.DefaultOrderBy
	}
	m.orderBy = column
	m.direction = domain.ParseSortDirection(string(direction))
}

func (m *DataManager) SetPage(page int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.page = page
}

// SetShowingDeleted switches between the active and deleted listings.
func (m *DataManager) SetShowingDeleted(showing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.showingDeleted == showing {
		return
	}
	m.showingDeleted = showing
	m.page = 1
}

func (m *DataManager) ToggleOne(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection.Toggle(id)
}

// ToggleAllOnPage selects or unselects every row of the visible page.
func (m *DataManager) ToggleAllOnPage() {
	m.mu.Lock()
	defer m.mu.Unlock()
	source := m.screen.InitialData
	if m.loaded && m.listing != nil {
		source = m.listing.Data
	}
	page := domain.Derive(source, m.filters, m.orderBy, m.direction, m.page, m.screen.PerPage)
	m.selection.TogglePage(domain.EntityIDs(page.Rows))
}

func (m *DataManager) ClearSelection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection.Clear()
}

func (m *DataManager) SelectedIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selection.IDs()
}

// BeginEdit opens the edit buffer on a copy of entity, or on the default values for a new row.
func (m *DataManager) BeginEdit(entity domain.Entity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entity == nil {
		entity = m.screen.DefaultValues.Clone()
		if entity == nil {
			entity = domain.Entity{}
		}
	} else {
		entity = entity.Clone()
	}
	m.editing = entity
	m.editOpen = true
}

func (m *DataManager) CancelEdit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editing = nil
	m.editOpen = false
}

// Save creates the entity when it has no id and updates it otherwise.
func (m *DataManager) Save(ctx context.Context, entity domain.Entity) domain.MutationResult {
	id, hasID := entity.ID()
	var ids []int64
	if hasID {
		ids = []int64{id}
	}
	return m.mutate(ctx, domain.MutationSave, ids, entity.Label(), func(ctx context.Context) (domain.Entity, error) {
		if m.deps.Mutator == nil {
			return nil, port.ErrEndpointUnsupported
		}
		if hasID {
			return m.deps.Mutator.Update(ctx, m.currentSession().Token, m.screen.Endpoint, id, entity.Clone())
		}
		return m.deps.Mutator.Create(ctx, m.currentSession().Token, m.screen.Endpoint, m.createBody(entity))
	}, func() {
		m.editing = nil
		m.editOpen = false
	})
}

func (m *DataManager) createBody(entity domain.Entity) domain.Entity {
	body := m.screen.DefaultValues.Clone()
	if body == nil {
		body = domain.Entity{}
	}
	for key, value := range entity {
		body[key] = value
	}
	return body
}

func (m *DataManager) Delete(ctx context.Context, id int64, label string) domain.MutationResult {
	return m.mutate(ctx, domain.MutationDelete, []int64{id}, label, func(ctx context.Context) (domain.Entity, error) {
		return nil, m.withMutator(func(mutator port.EntityMutator) error {
			return mutator.SoftDelete(ctx, m.currentSession().Token, m.screen.Endpoint, []int64{id})
		})
	}, nil)
}

func (m *DataManager) Restore(ctx context.Context, id int64, label string) domain.MutationResult {
	return m.mutate(ctx, domain.MutationRestore, []int64{id}, label, func(ctx context.Context) (domain.Entity, error) {
		return nil, m.withMutator(func(mutator port.EntityMutator) error {
			return mutator.Restore(ctx, m.currentSession().Token, m.screen.Endpoint, []int64{id})
		})
	}, nil)
}

// ForceDelete permanently removes a row of the deleted listing.
func (m *DataManager) ForceDelete(ctx context.Context, id int64, label string) domain.MutationResult {
	m.mu.Lock()
	showingDeleted := m.showingDeleted
	m.mu.Unlock()
	if !showingDeleted {
		return m.reject(ctx, domain.MutationForceDelete, []int64{id}, label, port.ErrNotInDeletedBucket)
	}
	return m.mutate(ctx, domain.MutationForceDelete, []int64{id}, label, func(ctx context.Context) (domain.Entity, error) {
		return nil, m.withMutator(func(mutator port.EntityMutator) error {
			return mutator.ForceDelete(ctx, m.currentSession().Token, m.screen.Endpoint, []int64{id})
		})
	}, nil)
}

func (m *DataManager) ToggleActive(ctx context.Context, id int64, active bool) domain.MutationResult {
	return m.mutate(ctx, domain.MutationToggleActive, []int64{id}, "", func(ctx context.Context) (domain.Entity, error) {
		return nil, m.withMutator(func(mutator port.EntityMutator) error {
			return mutator.SetActive(ctx, m.currentSession().Token, m.screen.Endpoint, id, active)
		})
	}, nil)
}

// BulkDelete soft deletes the selection and clears it on success.
func (m *DataManager) BulkDelete(ctx context.Context) domain.MutationResult {
	return m.bulk(ctx, domain.MutationBulkDelete, func(ctx context.Context, mutator port.EntityMutator, ids []int64) error {
		return mutator.SoftDelete(ctx, m.currentSession().Token, m.screen.Endpoint, ids)
	})
}

// BulkRestore restores the selection and clears it on success.
func (m *DataManager) BulkRestore(ctx context.Context) domain.MutationResult {
	return m.bulk(ctx, domain.MutationBulkRestore, func(ctx context.Context, mutator port.EntityMutator, ids []int64) error {
		return mutator.Restore(ctx, m.currentSession().Token, m.screen.Endpoint, ids)
	})
}

func (m *DataManager) bulk(ctx context.Context, kind domain.MutationKind, call func(context.Context, port.EntityMutator, []int64) error) domain.MutationResult {
	ids, err := m.bulkIDs()
	if err != nil {
		return m.reject(ctx, kind, ids, "", err)
	}
	return m.mutate(ctx, kind, ids, "", func(ctx context.Context) (domain.Entity, error) {
		return nil, m.withMutator(func(mutator port.EntityMutator) error {
			return call(ctx, mutator, ids)
		})
	}, func() {
		m.selection.Clear()
	})
}

// bulkIDs applies the bulk policy to the current selection.
func (m *DataManager) bulkIDs() ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.selection.IDs()
	if len(ids) == 0 {
		return ids, port.ErrEmptySelection
	}
	if m.screen.BulkPolicy != domain.BulkFailBatch {
		return ids, nil
	}
	known := map[int64]struct{}{}
	if m.listing != nil {
		for _, id := range domain.EntityIDs(m.listing.Data) {
			known[id] = struct{}{}
		}
	}
	var stale []int64
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		return ids, fmt.Errorf("%w: %v", port.ErrStaleSelection, stale)
	}
	return ids, nil
}

func (m *DataManager) withMutator(call func(port.EntityMutator) error) error {
	if m.deps.Mutator == nil {
		return port.ErrEndpointUnsupported
	}
	return call(m.deps.Mutator)
}

// mutate runs the confirmation gate, the server call and, on success, the local side effect
// followed by invalidation and a re-fetch. Failures leave the state untouched.
func (m *DataManager) mutate(ctx context.Context, kind domain.MutationKind, ids []int64, label string, call func(context.Context) (domain.Entity, error), onSuccess func()) domain.MutationResult {
	result := m.newResult(kind, ids, label)

	if kind.Destructive() {
		prompt := domain.NewConfirmationPrompt(kind, m.screen.Endpoint, ids, label)
		result.Prompt = &prompt
		confirmed, err := m.confirm(ctx, prompt)
		switch {
		case err != nil:
			result.Outcome = domain.OutcomeFailed
			result.Err = fmt.Errorf("confirm %s: %w", kind, err)
			m.notify(ctx, result)
			return result
		case !confirmed:
			result.Outcome = domain.OutcomeCancelled
			result.Err = port.ErrConfirmationDeclined
			slog.Info("data-manager mutation cancelled", slog.String("endpoint", m.screen.Endpoint), slog.String("kind", string(kind)))
			m.notify(ctx, result)
			return result
		}
	}

	entity, err := m.safeCall(ctx, call)
	if err != nil {
		slog.Warn("data-manager mutation failed", slog.String("endpoint", m.screen.Endpoint), slog.String("kind", string(kind)), slog.Any("ids", ids), slog.Any("error", err))
		result.Outcome = domain.OutcomeFailed
		result.Err = err
		m.notify(ctx, result)
		return result
	}

	result.Outcome = domain.OutcomeSucceeded
	result.Entity = entity
	if id, ok := entity.ID(); ok && len(result.EntityIDs) == 0 {
		result.EntityIDs = []int64{id}
	}
	if onSuccess != nil {
		m.mu.Lock()
		onSuccess()
		m.mu.Unlock()
	}
	slog.Info("data-manager mutation succeeded", slog.String("endpoint", m.screen.Endpoint), slog.String("kind", string(kind)), slog.Any("ids", result.EntityIDs))

	m.invalidate()
	if err := m.Load(ctx); err != nil {
		slog.Warn("data-manager reload after mutation failed", slog.String("endpoint", m.screen.Endpoint), slog.Any("error", err))
	}
	m.notify(ctx, result)
	return result
}

func (m *DataManager) reject(ctx context.Context, kind domain.MutationKind, ids []int64, label string, err error) domain.MutationResult {
	result := m.newResult(kind, ids, label)
	result.Outcome = domain.OutcomeFailed
	result.Err = err
	slog.Warn("data-manager mutation rejected", slog.String("endpoint", m.screen.Endpoint), slog.String("kind", string(kind)), slog.Any("error", err))
	m.notify(ctx, result)
	return result
}

func (m *DataManager) newResult(kind domain.MutationKind, ids []int64, label string) domain.MutationResult {
	return domain.MutationResult{
		ID:        m.deps.NewID(),
		Kind:      kind,
		Endpoint:  m.screen.Endpoint,
		EntityIDs: ids,
		Label:     strings.TrimSpace(label),
		At:        m.deps.Now(),
	}
}

func (m *DataManager) confirm(ctx context.Context, prompt domain.ConfirmationPrompt) (confirmed bool, err error) {
	if m.deps.Confirmer == nil {
		return false, nil
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			confirmed, err = false, fmt.Errorf("confirmer panic: %v", recovered)
		}
	}()
	return m.deps.Confirmer.Confirm(ctx, prompt)
}

func (m *DataManager) safeCall(ctx context.Context, call func(context.Context) (domain.Entity, error)) (entity domain.Entity, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			entity, err = nil, fmt.Errorf("mutation panic: %v", recovered)
		}
	}()
	return call(ctx)
}

func (m *DataManager) invalidate() {
	if m.deps.Loader == nil {
		return
	}
	m.deps.Loader.Invalidate(m.screen.Endpoint)
}

func (m *DataManager) notify(ctx context.Context, result domain.MutationResult) {
	if m.deps.Notifier == nil {
		return
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			slog.Error("data-manager notifier panic", slog.String("endpoint", m.screen.Endpoint), slog.Any("panic", recovered))
		}
	}()
	m.deps.Notifier.Notify(ContextWithSession(ctx, m.currentSession()), result)
}

func copyFilters(filters map[string]string) map[string]string {
	if len(filters) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(filters))
	for key, value := range filters {
		copied[key] = value
	}
	return copied
}
