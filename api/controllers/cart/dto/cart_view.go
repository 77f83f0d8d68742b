package cartdto

import "github.com/shopspring/decimal"

// EmptyCartMessage is rendered in place of the table when the cart has no rows.
const EmptyCartMessage = "Your cart is empty."

// CartRow is one line of the checkout table.
type CartRow struct {
	Key              string          `json:"key"`
	SKU              string          `json:"sku"`
	Name             string          `json:"name"`
	Qty              int             `json:"qty"`
	Price            decimal.Decimal `json:"price"`
	PriceDisplay     string          `json:"price_display"`
	LineTotal        decimal.Decimal `json:"line_total"`
	LineTotalDisplay string          `json:"line_total_display"`
	Meta             map[string]any  `json:"meta,omitempty"`
}

// CartView is the checkout table with its badge count and grand total.
type CartView struct {
	Rows         []CartRow       `json:"rows"`
	Count        int             `json:"count"`
	Total        decimal.Decimal `json:"total"`
	TotalDisplay string          `json:"total_display"`
	Empty        bool            `json:"empty"`
	Message      string          `json:"message,omitempty"`
}

// CartEvent is the payload of one server-sent cart update.
type CartEvent struct {
	Source string   `json:"source"`
	Count  int      `json:"count"`
	Cart   CartView `json:"cart"`
}
