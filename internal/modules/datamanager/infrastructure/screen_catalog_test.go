package infrastructure

import (
	"strings"
	"testing"

	"pharmadash/internal/modules/datamanager/domain"
)

const screensYAML = `
screens:
  - endpoint: products
    title: Productos
    roles: [admin, pharmacist]
    perPage: 20
    bulkPolicy: fail-batch
    columns:
      - key: name
        label: Nombre
      - key: brand.name
        label: Marca
    additionalData:
      - key: brands
        path: brands
    lookupMap:
      brand_id: brands
  - endpoint: /branches/
`

func TestDecodeScreenCatalog(t *testing.T) {
	t.Parallel()

	catalog, err := DecodeScreenCatalog(strings.NewReader(screensYAML), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	products, ok := catalog.Find("Products")
	if !ok {
		t.Fatal("expected products screen")
	}
	if products.PerPage != 20 || products.BulkPolicy != domain.BulkFailBatch {
		t.Fatalf("unexpected products screen %+v", products)
	}
	if len(products.Columns) != 2 || products.LookupMap["brand_id"] != "brands" {
		t.Fatalf("expected columns and lookup map, got %+v", products)
	}
	branches, ok := catalog.Find("branches")
	if !ok {
		t.Fatal("expected branches screen")
	}
	if branches.PerPage != domain.DefaultPerPage || branches.Title == "" {
		t.Fatalf("expected defaults applied, got %+v", branches)
	}
}

func TestDecodeScreenCatalog_RejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	if _, err := DecodeScreenCatalog(strings.NewReader("screens:\n  - endpoint: products\n    colums: []\n"), ""); err == nil {
		t.Fatal("expected unknown key to fail")
	}
	if _, err := DecodeScreenCatalog(strings.NewReader("screens:\n  - title: Orphan\n"), ""); err == nil {
		t.Fatal("expected missing endpoint to fail")
	}
	catalog, err := DecodeScreenCatalog(strings.NewReader(""), "")
	if err != nil {
		t.Fatalf("expected empty document to load, got %v", err)
	}
	if len(catalog.Endpoints()) != 0 {
		t.Fatalf("expected empty catalog, got %v", catalog.Endpoints())
	}
}

func TestDecodeScreenCatalog_DefaultBulkPolicy(t *testing.T) {
	t.Parallel()

	catalog, err := DecodeScreenCatalog(strings.NewReader(screensYAML), "fail-batch")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	branches, _ := catalog.Find("branches")
	if branches.BulkPolicy != domain.BulkFailBatch {
		t.Fatalf("expected default policy applied, got %s", branches.BulkPolicy)
	}

	catalog, _ = DecodeScreenCatalog(strings.NewReader("screens:\n  - endpoint: offers\n    bulkPolicy: ignore-unknown\n"), "fail-batch")
	offers, _ := catalog.Find("offers")
	if offers.BulkPolicy != domain.BulkIgnoreUnknown {
		t.Fatalf("expected explicit policy kept, got %s", offers.BulkPolicy)
	}
}

func TestLoadScreenCatalog_ShippedFile(t *testing.T) {
	t.Parallel()

	catalog, err := LoadScreenCatalog("../../../../configs/screens.yaml", "ignore-unknown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, endpoint := range []string{"products", "branches", "warehouses", "roles", "offers"} {
		if _, ok := catalog.Find(endpoint); !ok {
			t.Fatalf("expected %s screen in the shipped catalog", endpoint)
		}
	}
	if got := len(catalog.ForRoles([]string{"warehouse"})); got != 2 {
		t.Fatalf("expected 2 screens for warehouse role, got %d", got)
	}
}
