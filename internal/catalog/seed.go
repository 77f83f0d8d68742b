package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// StockSetter writes absolute inventory counts.
type StockSetter interface {
	SetCounts(ctx context.Context, counts map[string]int) error
}

// Seed loads a JSON array of products (the static feed format) into the
// catalog, keeping file order as display order. When stock is non-nil the
// feed's qty values become the inventory counts.
func Seed(ctx context.Context, repo *Repository, stock StockSetter, r io.Reader) (int, error) {
	var feed []Product
	if err := json.NewDecoder(r).Decode(&feed); err != nil {
		return 0, fmt.Errorf("decode product feed: %w", err)
	}

	counts := make(map[string]int, len(feed))
	seeded := 0
	for i, p := range feed {
		p.SKU = strings.TrimSpace(p.SKU)
		if p.SKU == "" {
			continue
		}
		if strings.TrimSpace(p.Status) == "" {
			p.Status = StatusActive
		}
		if p.Price.IsNegative() {
			return seeded, fmt.Errorf("product %s: negative price", p.SKU)
		}
		if err := repo.Upsert(ctx, p, i); err != nil {
			return seeded, fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
		counts[p.SKU] = max(p.Qty, 0)
		seeded++
	}

	if stock != nil && len(counts) > 0 {
		if err := stock.SetCounts(ctx, counts); err != nil {
			return seeded, fmt.Errorf("set inventory counts: %w", err)
		}
	}
	return seeded, nil
}
