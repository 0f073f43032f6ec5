package domain

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SearchFilterKey is the reserved filter key that triggers the multi-field scan.
const SearchFilterKey = "search"

// ApplyFilters keeps the rows that satisfy the free-text search and every per-column
// filter. Conditions compose conjunctively; the input slice is never modified.
func ApplyFilters(rows []Entity, filters map[string]string) []Entity {
	search := strings.ToLower(strings.TrimSpace(filters[SearchFilterKey]))
	columns := make(map[string]string, len(filters))
	for key, value := range filters {
		trimmedKey := strings.TrimSpace(key)
		trimmedValue := strings.TrimSpace(value)
		if trimmedKey == "" || trimmedKey == SearchFilterKey || trimmedValue == "" {
			continue
		}
		columns[trimmedKey] = strings.ToLower(trimmedValue)
	}

	filtered := make([]Entity, 0, len(rows))
	for _, row := range rows {
		if search != "" && !matchesSearch(row, search) {
			continue
		}
		if !matchesColumns(row, columns) {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}

// matchesSearch scans the row's own scalar fields, skipping id and timestamps. Nested
// objects and arrays are opaque: neither their keys nor their values are searched.
func matchesSearch(row Entity, term string) bool {
	for key, value := range row {
		if isMetadataKey(key) || isComposite(value) {
			continue
		}
		text, ok := row.Display(key)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(text), term) {
			return true
		}
	}
	return false
}

func isComposite(value any) bool {
	switch value.(type) {
	case map[string]any, Entity, []any, []map[string]any:
		return true
	}
	return false
}

func matchesColumns(row Entity, columns map[string]string) bool {
	for key, want := range columns {
		text, ok := row.Display(key)
		if !ok || !strings.Contains(strings.ToLower(text), want) {
			return false
		}
	}
	return true
}

// SortLocale is the collation used by ApplySort.
var SortLocale = language.Und

// ApplySort orders rows by the stringified value of orderBy using locale-aware collation.
// Numeric columns are compared as strings, so "10" sorts before "9". Nil and missing values
// sort as the empty string. The sort is stable and returns a new slice.
func ApplySort(rows []Entity, orderBy string, direction SortDirection) []Entity {
	sorted := make([]Entity, len(rows))
	copy(sorted, rows)

	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" {
		orderBy = DefaultOrderBy
	}
	if direction != SortAsc {
		direction = SortDesc
	}

	keys := make([]string, len(sorted))
	for index, row := range sorted {
		keys[index], _ = row.Display(orderBy)
	}
	order := make([]int, len(sorted))
	for index := range order {
		order[index] = index
	}

	collator := collate.New(SortLocale)
	sort.SliceStable(order, func(i, j int) bool {
		cmp := collator.CompareString(keys[order[i]], keys[order[j]])
		if direction == SortDesc {
			return cmp > 0
		}
		return cmp < 0
	})

	result := make([]Entity, len(sorted))
	for position, index := range order {
		result[position] = sorted[index]
	}
	return result
}

// Derive runs the whole client-side pipeline: filter, sort, paginate.
func Derive(rows []Entity, filters map[string]string, orderBy string, direction SortDirection, page, perPage int) Page {
	return Paginate(ApplySort(ApplyFilters(rows, filters), orderBy, direction), page, perPage)
}
