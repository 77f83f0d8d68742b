package cart

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// maxQty bounds quantities so sums across a cart cannot overflow.
const maxQty = 1_000_000

var moneyReplacer = strings.NewReplacer("$", "", ",", "", " ", "")

// Number converts loosely typed input into a float64. Numeric strings may
// carry a currency sign or thousands separators. Anything else is NaN.
func Number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case decimal.Decimal:
		return n.InexactFloat64()
	case string:
		f, err := strconv.ParseFloat(moneyReplacer.Replace(strings.TrimSpace(n)), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// Quantity floors f to an integer. Non-finite input is 0. The result may be
// negative; callers clamp where the operation requires it.
func Quantity(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Floor(f)
	if f > maxQty {
		return maxQty
	}
	if f < -maxQty {
		return -maxQty
	}
	return int(f)
}

// Price turns f into a non-negative decimal. Non-finite or negative input is 0.
func Price(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// PriceOf is Price for loosely typed input. Decimal strings are parsed exactly.
func PriceOf(v any) decimal.Decimal {
	switch p := v.(type) {
	case decimal.Decimal:
		if p.IsNegative() {
			return decimal.Zero
		}
		return p
	case string:
		d, err := decimal.NewFromString(moneyReplacer.Replace(strings.TrimSpace(p)))
		if err != nil || d.IsNegative() {
			return decimal.Zero
		}
		return d
	default:
		return Price(Number(v))
	}
}
