package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/pkg/config"
)

func TestShopperIssuesAndReusesID(t *testing.T) {
	store := NewSessionStore(config.SessionConfig{Secret: "0123456789abcdef0123456789abcdef", Name: "sf_session", MaxAge: time.Hour})
	var seen []string
	handler := Shopper(store, "sf_session", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, ShopperIDFromContext(r.Context()))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	cookies := first.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "sf_session" || !cookies[0].HttpOnly {
		t.Fatalf("expected one http-only session cookie, got %+v", cookies)
	}

	again := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	again.AddCookie(cookies[0])
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, again)

	if len(seen) != 2 || seen[0] == "" || seen[0] != seen[1] {
		t.Fatalf("expected a stable shopper id, got %v", seen)
	}
	if len(second.Result().Cookies()) != 0 {
		t.Fatal("an existing session should not be re-issued")
	}
}

func TestShopperReplacesTamperedCookie(t *testing.T) {
	store := NewSessionStore(config.SessionConfig{Secret: "0123456789abcdef0123456789abcdef", MaxAge: time.Hour})
	var got string
	handler := Shopper(store, "sf_session", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ShopperIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sf_session", Value: "forged"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got == "" || len(rec.Result().Cookies()) != 1 {
		t.Fatalf("expected a fresh shopper id and cookie, got %q", got)
	}
}

func TestInventoryAdmin(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		presented string
		want      bool
	}{
		{"match", "s3cret", "s3cret", true},
		{"mismatch", "s3cret", "nope", false},
		{"missing header", "s3cret", "", false},
		{"disabled", "", "", false},
	}
	for _, tt := range tests {
		var got bool
		handler := InventoryAdmin(tt.token)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = IsInventoryAdmin(r.Context())
		}))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory", nil)
		if tt.presented != "" {
			req.Header.Set("X-Inventory-Admin", tt.presented)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
		if got != tt.want {
			t.Fatalf("%s: expected admin=%v got %v", tt.name, tt.want, got)
		}
	}
}

func TestRequestIDEchoesOrMints(t *testing.T) {
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-Id") != "abc-123" {
		t.Fatalf("expected echoed id, got %q", rec.Header().Get("X-Request-Id"))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected a minted request id")
	}
}

func TestRecovererWritesInternalError(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}
