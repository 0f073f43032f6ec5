package domain

import (
	"strings"

	"pharmadash/internal/shared/normalization"
)

// StaticFilterOptions backs select filters for well-known columns that have no lookup source.
var StaticFilterOptions = map[string][]FilterOption{
	"status": {
		{Value: "active", Label: "Active"},
		{Value: "inactive", Label: "Inactive"},
	},
	"type": {
		{Value: "percentage", Label: "Percentage"},
		{Value: "fixed", Label: "Fixed"},
	},
}

var excludedFilterKeys = map[string]struct{}{
	FieldID:        {},
	"actions":      {},
	FieldCreatedAt: {},
	FieldUpdatedAt: {},
	FieldDeletedAt: {},
	FieldName:      {},
}

// GenerateDynamicFilters derives the filter bar from column metadata when a screen declares
// no explicit filters. lookupMap pins a column key to a lookup source key; columns absent
// from it fall back to name heuristics. The output order depends only on the inputs.
func GenerateDynamicFilters(columns []Column, lookups []Lookup, lookupMap map[string]string) []FilterField {
	filters := []FilterField{{Key: FieldName, Label: "Name", Type: FilterText}}
	seen := map[string]struct{}{FieldName: {}}
	usedLookups := map[string]struct{}{}

	for _, column := range columns {
		key := strings.TrimSpace(column.Key)
		if key == "" {
			continue
		}
		if _, excluded := excludedFilterKeys[key]; excluded {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		label := column.Label
		if strings.TrimSpace(label) == "" {
			label = humanize(key)
		}

		if !column.HasCustomRenderer() && !column.IsNested() {
			filters = append(filters, FilterField{Key: key, Label: label, Type: FilterText})
			seen[key] = struct{}{}
			continue
		}

		field := FilterField{Key: selectFilterKey(key), Label: label, Type: FilterSelect, Options: []FilterOption{}}
		if lookup, ok := resolveLookup(key, lookups, lookupMap); ok {
			field.Options = lookupOptions(lookup.Rows)
			usedLookups[strings.ToLower(lookup.Key)] = struct{}{}
		} else if static, ok := StaticFilterOptions[strings.ToLower(lookupBaseName(key))]; ok {
			field.Options = append(field.Options, static...)
		}
		if _, dup := seen[field.Key]; dup {
			continue
		}
		filters = append(filters, field)
		seen[field.Key] = struct{}{}
		seen[key] = struct{}{}
	}

	for _, lookup := range lookups {
		sourceKey := strings.TrimSpace(lookup.Key)
		if sourceKey == "" {
			continue
		}
		if _, used := usedLookups[strings.ToLower(sourceKey)]; used {
			continue
		}
		if _, dup := seen[sourceKey]; dup {
			continue
		}
		label := lookup.Label
		if strings.TrimSpace(label) == "" {
			label = humanize(sourceKey)
		}
		filters = append(filters, FilterField{Key: sourceKey, Label: label, Type: FilterSelect, Options: lookupOptions(lookup.Rows)})
		seen[sourceKey] = struct{}{}
	}

	return filters
}

// resolveLookup finds the lookup source backing a column: the explicit mapping first,
// then the stripped/pluralized candidates of the column key.
func resolveLookup(columnKey string, lookups []Lookup, lookupMap map[string]string) (Lookup, bool) {
	if mapped, ok := lookupMap[columnKey]; ok {
		return findLookup(lookups, mapped)
	}
	for _, candidate := range lookupCandidates(columnKey) {
		if lookup, ok := findLookup(lookups, candidate); ok {
			return lookup, true
		}
	}
	return Lookup{}, false
}

func findLookup(lookups []Lookup, key string) (Lookup, bool) {
	key = strings.TrimSpace(key)
	for _, lookup := range lookups {
		if strings.EqualFold(strings.TrimSpace(lookup.Key), key) {
			return lookup, true
		}
	}
	return Lookup{}, false
}

func lookupCandidates(columnKey string) []string {
	base := lookupBaseName(columnKey)
	candidates := []string{columnKey}
	if base != "" && base != columnKey {
		candidates = append(candidates, base)
	}
	if plural := normalization.Pluralize(base); plural != "" {
		candidates = append(candidates, plural)
	}
	return candidates
}

// lookupBaseName strips the nesting and id suffixes: "brand.name" -> "brand",
// "category_id" -> "category", "warehouseId" -> "warehouse".
func lookupBaseName(columnKey string) string {
	base := strings.TrimSpace(columnKey)
	if index := strings.Index(base, "."); index > 0 {
		base = base[:index]
	}
	switch {
	case strings.HasSuffix(base, "_id") && len(base) > 3:
		base = strings.TrimSuffix(base, "_id")
	case strings.HasSuffix(base, "Id") && len(base) > 2:
		base = strings.TrimSuffix(base, "Id")
	}
	return base
}

// selectFilterKey points nested columns at the related id so option values line up.
func selectFilterKey(columnKey string) string {
	index := strings.LastIndex(columnKey, ".")
	if index <= 0 {
		return columnKey
	}
	return columnKey[:index] + "." + FieldID
}

func lookupOptions(rows []Entity) []FilterOption {
	options := make([]FilterOption, 0, len(rows))
	for _, row := range rows {
		value, ok := row.Display(FieldID)
		if !ok {
			continue
		}
		label, ok := row.Display(FieldName)
		if !ok || strings.TrimSpace(label) == "" {
			label, _ = row.Display(FieldTitle)
		}
		options = append(options, FilterOption{Value: value, Label: label})
	}
	return options
}

func humanize(key string) string {
	key = strings.NewReplacer("_", " ", ".", " ", "-", " ").Replace(strings.TrimSpace(key))
	if key == "" {
		return ""
	}
	return strings.ToUpper(key[:1]) + key[1:]
}
