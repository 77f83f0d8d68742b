package cart

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func TestKeyFor(t *testing.T) {
	if got := KeyFor("SKU1", nil); got != "SKU1" {
		t.Fatalf("expected bare sku, got %q", got)
	}
	if got := KeyFor(" SKU1 ", map[string]any{"branch": "army"}); got != "SKU1:army" {
		t.Fatalf("expected branch qualified key, got %q", got)
	}
	if got := KeyFor("SKU1", map[string]any{"branch": "  "}); got != "SKU1" {
		t.Fatalf("blank branch should not qualify, got %q", got)
	}
}

func TestCountAndTotalOfEmptyCart(t *testing.T) {
	if Count(nil) != 0 || Count(Cart{}) != 0 {
		t.Fatal("empty cart count should be 0")
	}
	if !Total(Cart{}).IsZero() {
		t.Fatal("empty cart total should be 0")
	}
}

func TestCountAndTotal(t *testing.T) {
	c := Cart{
		{Key: "A", SKU: "A", Price: decimal.RequireFromString("10.10"), Qty: 3},
		{Key: "B", SKU: "B", Price: decimal.RequireFromString("0.05"), Qty: 2},
	}
	if got := Count(c); got != 5 {
		t.Fatalf("expected count 5, got %d", got)
	}
	if got := Total(c); !got.Equal(decimal.RequireFromString("30.40")) {
		t.Fatalf("expected total 30.40, got %s", got)
	}
}

func TestNormalize(t *testing.T) {
	raw := []map[string]any{
		{"sku": "A", "name": "Widget", "price": 10.0, "qty": 2.0, "image": "a.png"},
		{"sku": "A", "name": "dupe", "price": 1.0, "qty": 9.0},
		{"sku": "", "qty": 1.0},
		{"sku": "Z", "qty": 0.0},
		{"sku": "B", "name": "Gadget", "price": "$5.50", "branch": "navy"},
		{"key": "C:x", "sku": "C", "price": "bad", "qty": "3", "meta": map[string]any{"branch": "x", "qty": 7.0}},
	}
	want := Cart{
		{Key: "A", SKU: "A", Name: "Widget", Price: decimal.NewFromInt(10), Qty: 2, Meta: map[string]any{"image": "a.png"}},
		{Key: "B:navy", SKU: "B", Name: "Gadget", Price: decimal.RequireFromString("5.50"), Qty: 1, Meta: map[string]any{"branch": "navy"}},
		{Key: "C:x", SKU: "C", Price: decimal.Zero, Qty: 3, Meta: map[string]any{"branch": "x"}},
	}
	if diff := cmp.Diff(want, Normalize(raw)); diff != "" {
		t.Fatalf("normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeMetaExistingWinsUnlessAbsent(t *testing.T) {
	existing := map[string]any{"image": "old.png", "note": ""}
	got := mergeMeta(existing, map[string]any{"image": "new.png", "note": "gift", "color": "red", "price": 1.0})
	want := map[string]any{"image": "old.png", "note": "gift", "color": "red"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
	if existing["note"] != "" {
		t.Fatal("merge must not mutate the existing bag")
	}
}
