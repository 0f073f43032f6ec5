package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/viper"

	"pharmadash/internal/modules/datamanager/domain"
	"pharmadash/internal/shared/auth"
)

const testScreens = `screens:
  - endpoint: products
    title: Products
    bulkPolicy: fail-batch
    columns:
      - key: name
        label: Name
        sortable: true
`

type fakeBackend struct {
	mu       sync.Mutex
	rows     []domain.Entity
	deleted  []int64
	restored []int64
	created  []domain.Entity
	queries  []domain.ListingQuery
}

func (f *fakeBackend) FetchListing(ctx context.Context, token string, query domain.ListingQuery) (*domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	rows := make([]domain.Entity, 0, len(f.rows))
	for _, row := range f.rows {
		rows = append(rows, row.Clone())
	}
	return &domain.Listing{Data: rows, Meta: domain.PaginationMeta{CurrentPage: 1, LastPage: 1, Total: len(rows)}}, nil
}

func (f *fakeBackend) FetchLookup(ctx context.Context, token, path string) ([]domain.Entity, error) {
	return nil, errors.New("no lookups")
}

func (f *fakeBackend) Create(ctx context.Context, token, endpoint string, body domain.Entity) (domain.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, body.Clone())
	created := body.Clone()
	created["id"] = float64(100)
	return created, nil
}

func (f *fakeBackend) Update(ctx context.Context, token, endpoint string, id int64, body domain.Entity) (domain.Entity, error) {
	return body, nil
}

func (f *fakeBackend) SoftDelete(ctx context.Context, token, endpoint string, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ids...)
	return nil
}

func (f *fakeBackend) Restore(ctx context.Context, token, endpoint string, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restored = append(f.restored, ids...)
	return nil
}

func (f *fakeBackend) ForceDelete(ctx context.Context, token, endpoint string, ids []int64) error {
	return nil
}

func (f *fakeBackend) SetActive(ctx context.Context, token, endpoint string, id int64, active bool) error {
	return nil
}

func (f *fakeBackend) deletedIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.deleted...)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{rows: []domain.Entity{
		{"id": float64(1), "name": "Aspirin", "active": true},
		{"id": float64(2), "name": "Ibuprofen", "active": true},
	}}
}

// runCLI executes dashctl against backend with a temporary config pointing at the test catalog.
func runCLI(t *testing.T, backend *fakeBackend, stdin string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	screens := filepath.Join(dir, "screens.yaml")
	if err := os.WriteFile(screens, []byte(testScreens), 0o600); err != nil {
		t.Fatalf("write screens: %v", err)
	}
	config := filepath.Join(dir, "dashctl.yaml")
	if err := os.WriteFile(config, []byte("screens: "+screens+"\ntoken: test-token\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out bytes.Buffer
	env := Env{
		In:  strings.NewReader(stdin),
		Out: &out,
		Err: &out,
		NewBackend: func(v *viper.Viper) (Backend, error) {
			if got := v.GetString("token"); got != "test-token" {
				t.Errorf("expected token from config file, got %q", got)
			}
			return Backend{Fetcher: backend, Lookups: backend, Mutator: backend}, nil
		},
	}
	root := NewRootCommand(env)
	root.SetArgs(append([]string{"--config", config}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestListPrintsRows(t *testing.T) {
	t.Parallel()

	out, err := runCLI(t, newFakeBackend(), "", "list", "products", "--sort", "name")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Products", "NAME", "Aspirin", "Ibuprofen", "2 rows"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Index(out, "Aspirin") > strings.Index(out, "Ibuprofen") {
		t.Fatalf("expected ascending sort by name, got:\n%s", out)
	}
}

func TestListSearchNarrowsRows(t *testing.T) {
	t.Parallel()

	out, err := runCLI(t, newFakeBackend(), "", "list", "products", "--search", "ibu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "Aspirin") || !strings.Contains(out, "Ibuprofen") {
		t.Fatalf("expected only Ibuprofen, got:\n%s", out)
	}
}

func TestDeleteDeclined(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	out, err := runCLI(t, backend, "n\n", "delete", "products", "1", "--label", "Aspirin")
	if err != nil {
		t.Fatalf("expected a cancelled delete not to fail, got %v", err)
	}
	if !strings.Contains(out, "Delete Aspirin?") {
		t.Fatalf("expected confirmation prompt, got:\n%s", out)
	}
	if !strings.Contains(out, "Action cancelled") {
		t.Fatalf("expected cancellation notice, got:\n%s", out)
	}
	if ids := backend.deletedIDs(); len(ids) != 0 {
		t.Fatalf("expected no delete call, got %v", ids)
	}
}

func TestDeleteConfirmed(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	out, err := runCLI(t, backend, "y\n", "delete", "products", "2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids := backend.deletedIDs(); len(ids) != 1 || ids[0] != 2 {
		t.Fatalf("expected delete of id 2, got %v", ids)
	}
	if !strings.Contains(out, "[success]") {
		t.Fatalf("expected success notice, got:\n%s", out)
	}
}

func TestBulkDeleteWithYesFlag(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	out, err := runCLI(t, backend, "", "--yes", "bulk-delete", "products", "1", "2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "(y/N)") {
		t.Fatalf("expected no prompt with --yes, got:\n%s", out)
	}
	if ids := backend.deletedIDs(); len(ids) != 2 {
		t.Fatalf("expected two ids deleted, got %v", ids)
	}
}

func TestBulkDeleteRejectsUnknownIDsOnFailBatchScreen(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	_, err := runCLI(t, backend, "", "--yes", "bulk-delete", "products", "1", "99")
	if err == nil {
		t.Fatal("expected stale selection error")
	}
	if ids := backend.deletedIDs(); len(ids) != 0 {
		t.Fatalf("expected no delete call, got %v", ids)
	}
}

func TestSaveMergesPayload(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	if _, err := runCLI(t, backend, "", "save", "products", "--data", `{"name":"Paracetamol"}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(backend.created) != 1 || backend.created[0]["name"] != "Paracetamol" {
		t.Fatalf("expected create with payload, got %v", backend.created)
	}
}

func TestSaveRequiresPayload(t *testing.T) {
	t.Parallel()

	if _, err := runCLI(t, newFakeBackend(), "", "save", "products"); err == nil {
		t.Fatal("expected error without --data or --file")
	}
}

func TestInvalidIDIsRejected(t *testing.T) {
	t.Parallel()

	if _, err := runCLI(t, newFakeBackend(), "", "delete", "products", "abc"); err == nil {
		t.Fatal("expected invalid id error")
	}
}

func TestTokenValidates(t *testing.T) {
	t.Parallel()

	out, err := runCLI(t, newFakeBackend(), "", "token", "--secret", "s3cret", "--subject", "alice", "--role", "Admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claims, err := auth.NewJWTValidator("s3cret").Validate(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("expected minted token to validate, got %v", err)
	}
	if claims.UserID() != "alice" {
		t.Fatalf("expected subject alice, got %q", claims.UserID())
	}
	if !claims.HasRole("admin") {
		t.Fatalf("expected admin role, got %v", claims.Roles)
	}
	if claims.SessionID == "" {
		t.Fatal("expected a generated session id")
	}
}

func TestScreensListsCatalog(t *testing.T) {
	t.Parallel()

	out, err := runCLI(t, newFakeBackend(), "", "screens")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "products") || !strings.Contains(out, "Products") {
		t.Fatalf("expected products screen, got:\n%s", out)
	}
}
