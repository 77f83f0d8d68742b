package checkout

import (
	"fmt"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// StockValidationInput is one sku's requested units against what inventory holds.
type StockValidationInput struct {
	SKU       string
	Name      string
	Available int
	Requested int
}

// StockViolationDetail is returned to callers for every sku that cannot be filled.
type StockViolationDetail struct {
	SKU          string `json:"sku"`
	Name         string `json:"name,omitempty"`
	AvailableQty int    `json:"available_qty"`
	RequestedQty int    `json:"requested_qty"`
}

// ValidateStock fails with a state conflict listing every line that asks for
// more units than are available. Lines requesting nothing are ignored.
func ValidateStock(items []StockValidationInput) error {
	var violations []StockViolationDetail
	for _, item := range items {
		if item.Requested <= 0 || item.Requested <= item.Available {
			continue
		}
		available := item.Available
		if available < 0 {
			available = 0
		}
		violations = append(violations, StockViolationDetail{
			SKU:          item.SKU,
			Name:         item.Name,
			AvailableQty: available,
			RequestedQty: item.Requested,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("insufficient stock for %d item(s)", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
