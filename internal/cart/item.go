package cart

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MetaBranch is the meta attribute that qualifies an item key.
const MetaBranch = "branch"

var reservedFields = map[string]struct{}{
	"key":   {},
	"sku":   {},
	"name":  {},
	"price": {},
	"qty":   {},
	"meta":  {},
}

type Item struct {
	Key   string          `json:"key"`
	SKU   string          `json:"sku"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Qty   int             `json:"qty"`
	Meta  map[string]any  `json:"meta,omitempty"`
}

func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// Cart is ordered by insertion; the order is the display order.
type Cart []Item

func (c Cart) Index(key string) int {
	for idx := range c {
		if c[idx].Key == key {
			return idx
		}
	}
	return -1
}

func (c Cart) Find(key string) (Item, bool) {
	if idx := c.Index(key); idx >= 0 {
		return c[idx], true
	}
	return Item{}, false
}

func (c Cart) clone() Cart {
	out := make(Cart, len(c))
	for idx, item := range c {
		item.Meta = cloneMeta(item.Meta)
		out[idx] = item
	}
	return out
}

// Count sums item quantities.
func Count(c Cart) int {
	total := 0
	for _, item := range c {
		total += item.Qty
	}
	return total
}

// Total sums qty * price across the cart.
func Total(c Cart) decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.LineTotal())
	}
	return total
}

// KeyFor derives an item key from the sku and an optional meta branch.
func KeyFor(sku string, meta map[string]any) string {
	sku = strings.TrimSpace(sku)
	if branch := metaString(meta, MetaBranch); branch != "" {
		return sku + ":" + branch
	}
	return sku
}

func metaString(meta map[string]any, field string) string {
	if meta == nil {
		return ""
	}
	return strings.TrimSpace(asString(meta[field]))
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	default:
		return ""
	}
}

func absent(v any, ok bool) bool {
	if !ok || v == nil {
		return true
	}
	s, isString := v.(string)
	return isString && s == ""
}

// cleanMeta copies meta without the fields an item owns.
func cleanMeta(meta map[string]any) map[string]any {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		if _, reserved := reservedFields[k]; reserved {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// mergeMeta fills attributes the existing bag lacks; present values win.
func mergeMeta(existing, incoming map[string]any) map[string]any {
	incoming = cleanMeta(incoming)
	if len(incoming) == 0 {
		return existing
	}
	out := cloneMeta(existing)
	if out == nil {
		out = make(map[string]any, len(incoming))
	}
	for k, v := range incoming {
		if cur, ok := out[k]; absent(cur, ok) {
			out[k] = v
		}
	}
	return out
}

func cloneMeta(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}

// Normalize rebuilds a cart from a decoded document. Items without a sku or
// with a non-positive quantity are dropped, missing keys are derived and the
// first item wins when keys repeat. Flat attributes from older documents
// (image, branch) move into Meta.
func Normalize(raw []map[string]any) Cart {
	out := Cart{}
	seen := make(map[string]struct{}, len(raw))
	for _, entry := range raw {
		sku := strings.TrimSpace(asString(entry["sku"]))
		if sku == "" {
			continue
		}
		qty := 1
		if v, ok := entry["qty"]; ok {
			qty = Quantity(Number(v))
		}
		if qty <= 0 {
			continue
		}

		var meta map[string]any
		if nested, ok := entry["meta"].(map[string]any); ok {
			meta = cleanMeta(nested)
		}
		flat := make(map[string]any)
		for k, v := range entry {
			if _, reserved := reservedFields[k]; !reserved {
				flat[k] = v
			}
		}
		meta = mergeMeta(meta, flat)

		key := strings.TrimSpace(asString(entry["key"]))
		if key == "" {
			key = KeyFor(sku, meta)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, Item{
			Key:   key,
			SKU:   sku,
			Name:  asString(entry["name"]),
			Price: PriceOf(entry["price"]),
			Qty:   qty,
			Meta:  meta,
		})
	}
	return out
}
