package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTValidator_RoundTrip(t *testing.T) {
	t.Parallel()

	token, err := IssueHS256("secret", "user-1", "sess-1", []string{"Admin", " pharmacist ", "admin"}, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claims, err := NewJWTValidator("secret").Validate(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID() != "user-1" || claims.SessionID != "sess-1" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if len(claims.Roles) != 2 || !claims.HasRole("ADMIN") || !claims.HasRole("pharmacist") {
		t.Fatalf("expected normalized roles, got %v", claims.Roles)
	}
}

func TestJWTValidator_Rejects(t *testing.T) {
	t.Parallel()

	validator := NewJWTValidator("secret")
	if _, err := validator.Validate(" "); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}

	wrongKey, _ := IssueHS256("other", "user-1", "s", nil, time.Hour)
	if _, err := validator.Validate(wrongKey); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong key, got %v", err)
	}

	expired, _ := IssueHS256("secret", "user-1", "s", nil, time.Hour)
	validator.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := validator.Validate(expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: "admin"}).SignedString([]byte("secret"))
	if _, err := NewJWTValidator("secret").Validate(noSubject); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected missing subject to fail, got %v", err)
	}
}

func TestJWTValidator_SingleRoleAndSessionFallback(t *testing.T) {
	t.Parallel()

	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "Warehouse",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-9"},
	}).SignedString([]byte("secret"))
	claims, err := NewJWTValidator("secret").Validate(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.SessionID != "u-9" || !claims.HasRole("warehouse") {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestExtractToken(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/ws/notifications?token=abc", nil)
	if got := ExtractToken(req, ""); got != "abc" {
		t.Fatalf("expected query token, got %q", got)
	}
	req.Header.Set("Authorization", "BEARER xyz")
	if got := ExtractToken(req, ""); got != "xyz" {
		t.Fatalf("expected header token, got %q", got)
	}
	if got := ExtractBearerTokenFromHeader("Basic abc"); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}
