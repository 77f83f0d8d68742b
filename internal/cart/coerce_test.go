package cart

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		nan  bool
	}{
		{name: "float", in: 2.5, want: 2.5},
		{name: "int", in: 3, want: 3},
		{name: "json number", in: json.Number("4.25"), want: 4.25},
		{name: "decimal", in: decimal.RequireFromString("9.99"), want: 9.99},
		{name: "currency string", in: " $1,049.99 ", want: 1049.99},
		{name: "bad string", in: "abc", nan: true},
		{name: "nil", in: nil, nan: true},
		{name: "bool", in: true, nan: true},
	}
	for _, tt := range tests {
		got := Number(tt.in)
		if tt.nan {
			if !math.IsNaN(got) {
				t.Fatalf("%s: expected NaN, got %v", tt.name, got)
			}
			continue
		}
		if got != tt.want {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestQuantity(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{in: 2.9, want: 2},
		{in: -1.5, want: -2},
		{in: math.NaN(), want: 0},
		{in: math.Inf(1), want: 0},
		{in: math.Inf(-1), want: 0},
		{in: 1e12, want: maxQty},
	}
	for _, tt := range tests {
		if got := Quantity(tt.in); got != tt.want {
			t.Fatalf("Quantity(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPrice(t *testing.T) {
	if got := Price(-3); !got.IsZero() {
		t.Fatalf("negative price should be zero, got %s", got)
	}
	if got := Price(math.NaN()); !got.IsZero() {
		t.Fatalf("NaN price should be zero, got %s", got)
	}
	if got := Price(10.1); got.String() != "10.1" {
		t.Fatalf("expected 10.1, got %s", got)
	}
}

func TestPriceOf(t *testing.T) {
	if got := PriceOf("$12.345"); got.String() != "12.345" {
		t.Fatalf("expected exact decimal parse, got %s", got)
	}
	if got := PriceOf("-1"); !got.IsZero() {
		t.Fatalf("negative string should be zero, got %s", got)
	}
	if got := PriceOf(nil); !got.IsZero() {
		t.Fatalf("missing price should be zero, got %s", got)
	}
	if got := PriceOf(5.0); !got.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected 5, got %s", got)
	}
}
