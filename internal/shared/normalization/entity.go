package normalization

import "strings"

// endpointAliases maps the entity names emitted by backend change events and typed by
// operators onto the REST endpoint segment used by the dashboard screens.
var endpointAliases = map[string]string{
	"":        "",
	"-":       "",
	"default": "",

	"product":  "products",
	"products": "products",

	"branch":   "branches",
	"branches": "branches",

	"warehouse":  "warehouses",
	"warehouses": "warehouses",

	"role":  "roles",
	"roles": "roles",

	"permission":  "permissions",
	"permissions": "permissions",

	"offer":  "offers",
	"offers": "offers",

	"brand":  "brands",
	"brands": "brands",

	"category":   "categories",
	"categories": "categories",

	"company":   "companies",
	"companies": "companies",

	"pharmacy":   "pharmacies",
	"pharmacies": "pharmacies",

	"invoice":  "invoices",
	"invoices": "invoices",

	"user":  "users",
	"users": "users",

	"product-warehouse":  "product-warehouses",
	"product-warehouses": "product-warehouses",
	"productwarehouse":   "product-warehouses",
	"productwarehouses":  "product-warehouses",
}

// NormalizeEndpoint converts an entity name or endpoint path into its canonical endpoint
// segment: lower case, no surrounding slashes, underscores turned into hyphens.
//
// Example:
//
//	NormalizeEndpoint("/Product/")          => "products"
//	NormalizeEndpoint("PRODUCT_WAREHOUSE")  => "product-warehouses"
//	NormalizeEndpoint("admin/branches")     => "admin/branches"
func NormalizeEndpoint(raw string) string {
	trimmed := strings.Trim(strings.ToLower(strings.TrimSpace(raw)), "/")
	normalized := strings.ReplaceAll(trimmed, "_", "-")

	if canonical, found := endpointAliases[normalized]; found {
		return canonical
	}
	return normalized
}

// Pluralize applies the small set of English rules used to match lookup source names.
func Pluralize(word string) string {
	switch {
	case word == "":
		return ""
	case strings.HasSuffix(word, "y") && len(word) > 1 && !strings.ContainsAny(word[len(word)-2:len(word)-1], "aeiou"):
		return word[:len(word)-1] + "ies"
	case strings.HasSuffix(word, "s"), strings.HasSuffix(word, "x"), strings.HasSuffix(word, "ch"), strings.HasSuffix(word, "sh"):
		return word + "es"
	default:
		return word + "s"
	}
}
