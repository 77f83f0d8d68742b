package cartdto

// AddItemRequest adds qty of a product. Price and qty accept numbers or
// numeric strings; an absent qty means one.
type AddItemRequest struct {
	SKU   string         `json:"sku" validate:"required,max=128"`
	Name  string         `json:"name" validate:"max=256"`
	Price any            `json:"price"`
	Qty   any            `json:"qty,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// ApplyQuantitiesRequest carries the edited quantity inputs of the table, by item key.
type ApplyQuantitiesRequest struct {
	Quantities map[string]any `json:"quantities" validate:"required"`
}
