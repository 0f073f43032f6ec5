package domain

import (
	"strings"

	"pharmadash/internal/shared/normalization"
)

// ScreenConfig is the configuration a CRUD screen hands to the engine.
type ScreenConfig struct {
	Endpoint         string            `json:"endpoint" yaml:"endpoint"`
	Title            string            `json:"title" yaml:"title"`
	Roles            []string          `json:"roles,omitempty" yaml:"roles,omitempty"`
	Columns          []Column          `json:"columns" yaml:"columns"`
	FormFields       []FormField       `json:"formFields,omitempty" yaml:"formFields,omitempty"`
	AvailableFilters []FilterField     `json:"availableFilters,omitempty" yaml:"availableFilters,omitempty"`
	AdditionalData   []LookupSource    `json:"additionalData,omitempty" yaml:"additionalData,omitempty"`
	LookupMap        map[string]string `json:"lookupMap,omitempty" yaml:"lookupMap,omitempty"`
	InitialData      []Entity          `json:"initialData,omitempty" yaml:"initialData,omitempty"`
	DefaultFilters   map[string]string `json:"defaultFilters,omitempty" yaml:"defaultFilters,omitempty"`
	DefaultValues    Entity            `json:"defaultValues,omitempty" yaml:"defaultValues,omitempty"`
	PerPage          int               `json:"perPage,omitempty" yaml:"perPage,omitempty"`
	BulkPolicy       BulkPolicy        `json:"bulkPolicy,omitempty" yaml:"bulkPolicy,omitempty"`
}

// Normalize fills defaults and canonicalizes the endpoint.
func (c ScreenConfig) Normalize() ScreenConfig {
	normalized := c
	normalized.Endpoint = normalization.NormalizeEndpoint(c.Endpoint)
	if strings.TrimSpace(normalized.Title) == "" {
		normalized.Title = humanize(normalized.Endpoint)
	}
	if normalized.PerPage <= 0 {
		normalized.PerPage = DefaultPerPage
	}
	normalized.BulkPolicy = ParseBulkPolicy(string(normalized.BulkPolicy))
	return normalized
}

// AllowsRoles reports whether any of roles may open the screen. Screens without roles are open to all.
func (c ScreenConfig) AllowsRoles(roles []string) bool {
	if len(c.Roles) == 0 {
		return true
	}
	for _, allowed := range c.Roles {
		for _, role := range roles {
			if strings.EqualFold(strings.TrimSpace(allowed), strings.TrimSpace(role)) {
				return true
			}
		}
	}
	return false
}

// ScreenCatalog indexes the configured screens by endpoint, keeping declaration order.
type ScreenCatalog struct {
	screens []ScreenConfig
	index   map[string]int
}

// NewScreenCatalog normalizes screens; later duplicates of an endpoint replace earlier ones.
func NewScreenCatalog(screens []ScreenConfig) *ScreenCatalog {
	catalog := &ScreenCatalog{index: make(map[string]int, len(screens))}
	for _, screen := range screens {
		normalized := screen.Normalize()
		if normalized.Endpoint == "" {
			continue
		}
		if position, exists := catalog.index[normalized.Endpoint]; exists {
			catalog.screens[position] = normalized
			continue
		}
		catalog.index[normalized.Endpoint] = len(catalog.screens)
		catalog.screens = append(catalog.screens, normalized)
	}
	return catalog
}

// Find returns the screen for an endpoint or entity alias.
func (c *ScreenCatalog) Find(endpoint string) (ScreenConfig, bool) {
	if c == nil {
		return ScreenConfig{}, false
	}
	position, ok := c.index[normalization.NormalizeEndpoint(endpoint)]
	if !ok {
		return ScreenConfig{}, false
	}
	return c.screens[position], true
}

// ForRoles lists the screens visible to a role set.
func (c *ScreenCatalog) ForRoles(roles []string) []ScreenConfig {
	if c == nil {
		return nil
	}
	visible := make([]ScreenConfig, 0, len(c.screens))
	for _, screen := range c.screens {
		if screen.AllowsRoles(roles) {
			visible = append(visible, screen)
		}
	}
	return visible
}

// Endpoints lists every configured endpoint.
func (c *ScreenCatalog) Endpoints() []string {
	if c == nil {
		return nil
	}
	endpoints := make([]string, 0, len(c.screens))
	for _, screen := range c.screens {
		endpoints = append(endpoints, screen.Endpoint)
	}
	return endpoints
}
