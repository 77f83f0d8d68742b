package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type addPayload struct {
	SKU string   `json:"sku" validate:"required,max=64"`
	Qty *float64 `json:"qty,omitempty"`
}

func TestDecodeJSONBody(t *testing.T) {
	var dest addPayload
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"sku":"MUG","qty":2}`))
	if err := DecodeJSONBody(req, &dest); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dest.SKU != "MUG" || dest.Qty == nil || *dest.Qty != 2 {
		t.Fatalf("unexpected payload %+v", dest)
	}
}

func TestDecodeJSONBodyRejects(t *testing.T) {
	cases := map[string]string{
		"empty":         ``,
		"unknown field": `{"sku":"MUG","color":"red"}`,
		"missing sku":   `{"qty":1}`,
		"malformed":     `{"sku":`,
	}
	for name, body := range cases {
		var dest addPayload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		if err := DecodeJSONBody(req, &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestDecodeOptionalJSONBody(t *testing.T) {
	var dest struct {
		Coupon string `json:"coupon_code"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	if err := DecodeOptionalJSONBody(req, &dest); err != nil {
		t.Fatalf("empty body should be accepted: %v", err)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello  ", 0); got != "hello" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SanitizeString("héllo", 2); got != "h" {
		t.Fatalf("expected rune-safe cut, got %q", got)
	}
}

func TestQueryString(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?sku=%20FC-123%20", nil)
	if got := QueryString(req, "sku", 64); got != "FC-123" {
		t.Fatalf("unexpected %q", got)
	}
}
