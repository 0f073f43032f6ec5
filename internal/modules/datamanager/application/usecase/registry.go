package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"pharmadash/internal/modules/datamanager/application/port"
	"pharmadash/internal/modules/datamanager/domain"
	"pharmadash/internal/shared/normalization"
)

// ManagerRegistry keeps one DataManager per (session, endpoint).
type ManagerRegistry struct {
	catalog *domain.ScreenCatalog
	deps    Dependencies

	mu       sync.Mutex
	managers map[string]map[string]*DataManager
	lastSeen map[string]time.Time
	now      func() time.Time
}

func NewManagerRegistry(catalog *domain.ScreenCatalog, deps Dependencies) *ManagerRegistry {
	return &ManagerRegistry{
		catalog:  catalog,
		deps:     deps.withDefaults(),
		managers: make(map[string]map[string]*DataManager),
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (r *ManagerRegistry) Catalog() *domain.ScreenCatalog { return r.catalog }

// Manager returns the engine of endpoint for session, creating it on first use. The session
// token is refreshed on every call.
func (r *ManagerRegistry) Manager(session Session, endpoint string) (*DataManager, error) {
	screen, ok := r.catalog.Find(endpoint)
	if !ok {
		return nil, fmt.Errorf("screen %q: %w", strings.TrimSpace(endpoint), port.ErrEndpointUnsupported)
	}
	if !screen.AllowsRoles(session.Roles) {
		return nil, fmt.Errorf("screen %q: %w", screen.Endpoint, port.ErrScreenForbidden)
	}

	sessionKey := session.key()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSeen[sessionKey] = r.now()
	bucket := r.managers[sessionKey]
	if bucket == nil {
		bucket = make(map[string]*DataManager)
		r.managers[sessionKey] = bucket
	}
	if manager, exists := bucket[screen.Endpoint]; exists {
		manager.refreshToken(session.Token)
		return manager, nil
	}
	manager := NewDataManager(screen, session, r.deps)
	bucket[screen.Endpoint] = manager
	slog.Debug("manager-registry created manager", slog.String("session", sessionKey), slog.String("endpoint", screen.Endpoint))
	return manager, nil
}

// Release drops every engine of a session.
func (r *ManagerRegistry) Release(session Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.managers, session.key())
	delete(r.lastSeen, session.key())
}

// Sweep drops the engines of sessions that made no request for longer than idle and returns
// how many sessions were released.
func (r *ManagerRegistry) Sweep(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	released := 0
	for key, seen := range r.lastSeen {
		if seen.Before(cutoff) {
			delete(r.managers, key)
			delete(r.lastSeen, key)
			released++
		}
	}
	return released
}

// RunJanitor sweeps idle sessions every interval until ctx is done.
func (r *ManagerRegistry) RunJanitor(ctx context.Context, idle, interval time.Duration) {
	if idle <= 0 {
		return
	}
	if interval <= 0 {
		interval = idle / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if released := r.Sweep(idle); released > 0 {
				slog.Info("manager-registry released idle sessions", slog.Int("sessions", released))
			}
		}
	}
}

// ManagersFor returns every live engine bound to an endpoint or entity alias.
func (r *ManagerRegistry) ManagersFor(endpoint string) []*DataManager {
	endpoint = normalization.NormalizeEndpoint(endpoint)
	r.mu.Lock()
	defer r.mu.Unlock()
	var results []*DataManager
	for _, bucket := range r.managers {
		if manager, ok := bucket[endpoint]; ok {
			results = append(results, manager)
		}
	}
	return results
}

func (m *DataManager) refreshToken(token string) {
	if strings.TrimSpace(token) == "" {
		return
	}
	m.mu.Lock()
	m.session.Token = token
	m.mu.Unlock()
}
