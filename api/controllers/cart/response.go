package cart

import (
	cartdto "github.com/angelmondragon/storefront/api/controllers/cart/dto"
	cartsvc "github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/format"
)

func newCartView(c cartsvc.Cart) cartdto.CartView {
	rows := make([]cartdto.CartRow, 0, len(c))
	for _, item := range c {
		lineTotal := item.LineTotal()
		rows = append(rows, cartdto.CartRow{
			Key:              item.Key,
			SKU:              item.SKU,
			Name:             item.Name,
			Qty:              item.Qty,
			Price:            item.Price,
			PriceDisplay:     format.Money(item.Price),
			LineTotal:        lineTotal,
			LineTotalDisplay: format.Money(lineTotal),
			Meta:             item.Meta,
		})
	}

	total := cartsvc.Total(c)
	view := cartdto.CartView{
		Rows:         rows,
		Count:        cartsvc.Count(c),
		Total:        total,
		TotalDisplay: format.Money(total),
		Empty:        len(rows) == 0,
	}
	if view.Empty {
		view.Message = cartdto.EmptyCartMessage
	}
	return view
}

func newCartEvent(u cartsvc.Update) cartdto.CartEvent {
	return cartdto.CartEvent{
		Source: string(u.Source),
		Count:  u.Count,
		Cart:   newCartView(u.Cart),
	}
}
