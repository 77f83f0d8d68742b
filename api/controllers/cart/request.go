package cart

import (
	cartdto "github.com/angelmondragon/storefront/api/controllers/cart/dto"
	cartsvc "github.com/angelmondragon/storefront/internal/cart"
)

func addQuantity(payload cartdto.AddItemRequest) float64 {
	if payload.Qty == nil {
		return 1
	}
	return cartsvc.Number(payload.Qty)
}

func toQuantities(payload cartdto.ApplyQuantitiesRequest) map[string]float64 {
	quantities := make(map[string]float64, len(payload.Quantities))
	for key, raw := range payload.Quantities {
		quantities[key] = cartsvc.Number(raw)
	}
	return quantities
}
