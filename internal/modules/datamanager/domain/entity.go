package domain

import (
	"strings"

	"pharmadash/internal/shared/normalization"
)

// Reserved entity keys.
const (
	FieldID        = "id"
	FieldName      = "name"
	FieldTitle     = "title"
	FieldActive    = "active"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
	FieldDeletedAt = "deleted_at"
)

// Entity is one row managed by the engine. Only "id" is required; every other key is
// whatever the backend returns for the endpoint.
type Entity map[string]any

// ID returns the integer identifier when present.
func (e Entity) ID() (int64, bool) {
	if e == nil {
		return 0, false
	}
	return normalization.AsInt64(e[FieldID])
}

// Lookup resolves a dot-separated path ("brand.name") through nested maps.
func (e Entity) Lookup(path string) (any, bool) {
	if e == nil {
		return nil, false
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}
	if value, ok := e[path]; ok {
		return value, true
	}
	var current any = map[string]any(e)
	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			if typed, isEntity := current.(Entity); isEntity {
				node = typed
			} else {
				return nil, false
			}
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Display returns the stringified value at path; ok is false for missing or nil values.
func (e Entity) Display(path string) (string, bool) {
	value, ok := e.Lookup(path)
	if !ok {
		return "", false
	}
	return normalization.Stringify(value)
}

// Label picks the human readable name of the entity (name, then title, then id).
func (e Entity) Label() string {
	for _, key := range []string{FieldName, FieldTitle} {
		if text, ok := e.Display(key); ok && strings.TrimSpace(text) != "" {
			return text
		}
	}
	if text, ok := e.Display(FieldID); ok {
		return "#" + text
	}
	return ""
}

// Clone returns a shallow copy so callers may add keys without touching the cached row.
func (e Entity) Clone() Entity {
	if e == nil {
		return nil
	}
	cloned := make(Entity, len(e))
	for key, value := range e {
		cloned[key] = value
	}
	return cloned
}

// EntityIDs collects the identifiers of rows, skipping rows without a usable id.
func EntityIDs(rows []Entity) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		if id, ok := row.ID(); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func isMetadataKey(key string) bool {
	switch key {
	case FieldID, FieldCreatedAt, FieldUpdatedAt, FieldDeletedAt:
		return true
	default:
		return false
	}
}
