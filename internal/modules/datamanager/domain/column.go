package domain

import "strings"

// Column describes one displayed field of a screen.
type Column struct {
	Key      string `json:"key" yaml:"key"`
	Label    string `json:"label" yaml:"label"`
	Renderer string `json:"renderer,omitempty" yaml:"renderer,omitempty"`
	Sortable bool   `json:"sortable" yaml:"sortable"`
}

// HasCustomRenderer reports whether the screen renders the column with its own component.
func (c Column) HasCustomRenderer() bool {
	return strings.TrimSpace(c.Renderer) != ""
}

// IsNested reports whether the column key is a dot-path into a nested object.
func (c Column) IsNested() bool {
	return strings.Contains(c.Key, ".")
}

// FilterType is the input kind a filter renders as.
type FilterType string

const (
	FilterText   FilterType = "text"
	FilterSelect FilterType = "select"
)

// FilterOption is one (value, label) pair of a select filter.
type FilterOption struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// FilterField is a queryable dimension offered in the filter bar.
type FilterField struct {
	Key     string         `json:"key" yaml:"key"`
	Label   string         `json:"label" yaml:"label"`
	Type    FilterType     `json:"type" yaml:"type"`
	Options []FilterOption `json:"options,omitempty" yaml:"options,omitempty"`
}

// FormField describes one input of the create/edit modal. Validation belongs to the form.
type FormField struct {
	Key      string         `json:"key" yaml:"key"`
	Label    string         `json:"label" yaml:"label"`
	Type     string         `json:"type" yaml:"type"`
	Required bool           `json:"required,omitempty" yaml:"required,omitempty"`
	Lookup   string         `json:"lookup,omitempty" yaml:"lookup,omitempty"`
	Options  []FilterOption `json:"options,omitempty" yaml:"options,omitempty"`
}

// LookupSource names an auxiliary reference list ("additional data") fetched with GET.
type LookupSource struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	Path  string `json:"path" yaml:"path"`
}

// Lookup is a fetched LookupSource.
type Lookup struct {
	Key   string
	Label string
	Rows  []Entity
}
