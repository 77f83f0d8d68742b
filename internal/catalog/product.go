package catalog

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	StatusActive   = "active"
	StatusDraft    = "draft"
	StatusArchived = "archived"
)

// Product is one entry of the product feed.
type Product struct {
	SKU         string          `json:"sku"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Qty         int             `json:"qty"`
	Image       string          `json:"image,omitempty"`
	Status      string          `json:"status"`
	Description string          `json:"description,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
}

// Active reports whether the product may be shown and sold.
func (p Product) Active() bool {
	return strings.EqualFold(strings.TrimSpace(p.Status), StatusActive)
}

// SoldOut is true when no stock is left.
func (p Product) SoldOut() bool {
	return p.Qty <= 0
}

// Feed is the product feed the catalog renders from.
type Feed interface {
	List(ctx context.Context) ([]Product, error)
	FindBySKU(ctx context.Context, sku string) (Product, error)
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func joinTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			clean = append(clean, tag)
		}
	}
	return strings.Join(clean, ",")
}
