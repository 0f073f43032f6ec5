package domain

import (
	"sort"
	"strconv"
	"strings"
)

const (
	// DefaultPerPage is the visible page size of an engine instance.
	DefaultPerPage = 15
	// ListingPageSize is the page size requested from the backend so one call captures the collection.
	ListingPageSize = 1000
	// DefaultOrderBy and DefaultDirection give the most recently created rows first.
	DefaultOrderBy = FieldID
)

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection defaults anything unrecognized to desc.
func ParseSortDirection(raw string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(raw), string(SortAsc)) {
		return SortAsc
	}
	return SortDesc
}

// Toggle flips the direction.
func (d SortDirection) Toggle() SortDirection {
	if d == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// PaginationMeta mirrors the backend's meta block. Once local filtering is active it is
// always recomputed from the filtered row count.
type PaginationMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// Listing is the canonical {data, meta} shape every listing response is coerced into.
type Listing struct {
	Data []Entity       `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

// EmptyListing is what a malformed response degrades to.
func EmptyListing() *Listing {
	return &Listing{Data: []Entity{}, Meta: PaginationMeta{}}
}

// Clone copies the row slice header so callers can re-slice freely.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	rows := make([]Entity, len(l.Data))
	copy(rows, l.Data)
	return &Listing{Data: rows, Meta: l.Meta}
}

// ListingQuery is the parameter tuple a listing is fetched and cached by.
type ListingQuery struct {
	Endpoint         string
	Page             int
	ShowingDeleted   bool
	OrderBy          string
	OrderByDirection SortDirection
	Filters          map[string]string
}

// Normalize returns a sanitized copy applying defaults.
func (q ListingQuery) Normalize() ListingQuery {
	normalized := q
	normalized.Endpoint = strings.Trim(strings.TrimSpace(normalized.Endpoint), "/")
	if normalized.Page <= 0 {
		normalized.Page = 1
	}
	normalized.OrderBy = strings.TrimSpace(normalized.OrderBy)
	if normalized.OrderBy == "" {
		normalized.OrderBy = DefaultOrderBy
	}
	if normalized.OrderByDirection != SortAsc {
		normalized.OrderByDirection = SortDesc
	}
	normalized.Filters = sanitizeFilters(normalized.Filters)
	return normalized
}

// CanonicalKey builds a stable cache key for the parameter tuple.
func (q ListingQuery) CanonicalKey() string {
	normalized := q.Normalize()
	filtersKey := canonicalFiltersKey(normalized.Filters)

	var builder strings.Builder
	builder.Grow(len(normalized.Endpoint) + len(normalized.OrderBy) + len(filtersKey) + 48)
	builder.WriteString(strings.ToLower(normalized.Endpoint))
	builder.WriteString("?page=")
	builder.WriteString(strconv.Itoa(normalized.Page))
	builder.WriteString("&deleted=")
	builder.WriteString(strconv.FormatBool(normalized.ShowingDeleted))
	builder.WriteString("&orderBy=")
	builder.WriteString(normalized.OrderBy)
	builder.WriteString("&dir=")
	builder.WriteString(string(normalized.OrderByDirection))
	if filtersKey != "" {
		builder.WriteString("&filters=")
		builder.WriteString(filtersKey)
	}
	return builder.String()
}

// Page is one visible window of the derived rows.
type Page struct {
	Rows []Entity       `json:"rows"`
	Meta PaginationMeta `json:"meta"`
}

// Paginate slices the filtered and sorted rows. current_page echoes the request without
// clamping; a page past the end is empty rather than an error.
func Paginate(rows []Entity, page, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	total := len(rows)
	meta := PaginationMeta{
		CurrentPage: page,
		LastPage:    (total + perPage - 1) / perPage,
		PerPage:     perPage,
		Total:       total,
	}

	start := (page - 1) * perPage
	if start < 0 {
		start = 0
	}
	end := page * perPage
	if end > total {
		end = total
	}
	if start >= end {
		return Page{Rows: []Entity{}, Meta: meta}
	}
	window := make([]Entity, end-start)
	copy(window, rows[start:end])
	return Page{Rows: window, Meta: meta}
}

func sanitizeFilters(filters map[string]string) map[string]string {
	if len(filters) == 0 {
		return nil
	}
	sanitized := make(map[string]string, len(filters))
	for key, value := range filters {
		trimmedKey := strings.TrimSpace(key)
		trimmedValue := strings.TrimSpace(value)
		if trimmedKey == "" || trimmedValue == "" {
			continue
		}
		sanitized[trimmedKey] = trimmedValue
	}
	if len(sanitized) == 0 {
		return nil
	}
	return sanitized
}

func canonicalFiltersKey(filters map[string]string) string {
	if len(filters) == 0 {
		return ""
	}
	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var builder strings.Builder
	for index, key := range keys {
		if index > 0 {
			builder.WriteString(";")
		}
		builder.WriteString(key)
		builder.WriteString("=")
		builder.WriteString(filters[key])
	}
	return builder.String()
}
