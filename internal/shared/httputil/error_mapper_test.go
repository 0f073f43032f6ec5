package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

var errGone = errors.New("gone")

func TestErrorMapper_Map(t *testing.T) {
	t.Parallel()

	mapper := NewErrorMapper().WithMapping(errGone, http.StatusNotFound, "not found")

	if info := mapper.Map(fmt.Errorf("load: %w", errGone)); info.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", info.Status)
	}
	if info := mapper.Map(fmt.Errorf("fetch: %w", context.DeadlineExceeded)); info.Status != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", info.Status)
	}
	if info := mapper.Map(errors.New("boom")); info.Status != http.StatusInternalServerError || info.Message != "internal server error" {
		t.Fatalf("expected default mapping, got %+v", info)
	}
	if info := mapper.Map(nil); info.Status != http.StatusOK {
		t.Fatalf("expected 200 for nil, got %d", info.Status)
	}
}

func TestErrorMapper_Body(t *testing.T) {
	t.Parallel()

	mapper := NewErrorMapper().WithMapping(errGone, http.StatusNotFound, "not found").WithDetail()

	status, body := mapper.Body(fmt.Errorf("screen %q: %w", "offers", errGone))
	if status != http.StatusNotFound || body.Detail == "" {
		t.Fatalf("expected detail on client error, got %d %+v", status, body)
	}
	status, body = mapper.Body(errors.New("db password leaked"))
	if status != http.StatusInternalServerError || body.Detail != "" {
		t.Fatalf("expected no detail on server error, got %d %+v", status, body)
	}
}
