package infrastructure

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"pharmadash/internal/modules/datamanager/domain"
	"pharmadash/internal/shared/normalization"
)

// decodeListing coerces the listing body into {data, meta}. Bodies that are not JSON or do not
// match a known shape degrade to an empty listing.
func decodeListing(body io.Reader) *domain.Listing {
	var payload any
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		slog.Warn("listing payload undecodable", slog.Any("error", err))
		return domain.EmptyListing()
	}
	slog.Debug("listing payload decoded", slog.String("type", fmt.Sprintf("%T", payload)))
	return normalizeListingPayload(payload)
}

func normalizeListingPayload(payload any) *domain.Listing {
	switch typed := payload.(type) {
	case []any:
		rows := entitiesFrom(typed)
		return &domain.Listing{Data: rows, Meta: domain.PaginationMeta{CurrentPage: 1, LastPage: 1, PerPage: len(rows), Total: len(rows)}}
	case map[string]any:
		if data, ok := typed["data"].([]any); ok {
			rows := entitiesFrom(data)
			meta, found := metaFrom(typed["meta"])
			if !found {
				// paginator fields at the top level next to data
				meta, found = metaFrom(typed)
			}
			if !found {
				meta = domain.PaginationMeta{CurrentPage: 1, LastPage: 1, PerPage: len(rows), Total: len(rows)}
			}
			return &domain.Listing{Data: rows, Meta: meta}
		}
		if nested, ok := typed["data"].(map[string]any); ok {
			return normalizeListingPayload(nested)
		}
		if items, ok := typed["items"].([]any); ok {
			rows := entitiesFrom(items)
			meta, found := metaFrom(typed["meta"])
			if !found {
				meta, found = metaFrom(typed["pagination"])
			}
			if !found {
				meta = domain.PaginationMeta{CurrentPage: 1, LastPage: 1, PerPage: len(rows), Total: len(rows)}
			}
			return &domain.Listing{Data: rows, Meta: meta}
		}
	}
	slog.Warn("listing payload shape unrecognized", slog.String("type", fmt.Sprintf("%T", payload)))
	return domain.EmptyListing()
}

func entitiesFrom(items []any) []domain.Entity {
	rows := make([]domain.Entity, 0, len(items))
	for _, item := range items {
		if row, ok := item.(map[string]any); ok {
			rows = append(rows, domain.Entity(row))
		}
	}
	return rows
}

func metaFrom(raw any) (domain.PaginationMeta, bool) {
	values, ok := raw.(map[string]any)
	if !ok {
		return domain.PaginationMeta{}, false
	}
	meta := domain.PaginationMeta{}
	found := false
	read := func(target *int, keys ...string) {
		for _, key := range keys {
			if value, ok := normalization.AsInt64(values[key]); ok {
				*target = int(value)
				found = true
				return
			}
		}
	}
	read(&meta.CurrentPage, "current_page", "currentPage", "page")
	read(&meta.LastPage, "last_page", "lastPage", "total_pages", "totalPages")
	read(&meta.PerPage, "per_page", "perPage", "limit")
	read(&meta.Total, "total", "total_items", "totalItems")
	return meta, found
}
