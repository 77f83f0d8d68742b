package cart

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	cartdto "github.com/angelmondragon/storefront/api/controllers/cart/dto"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	cartsvc "github.com/angelmondragon/storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Carts hands out the cart model of a shopper. The release func must be
// called once the handler is done with the model.
type Carts interface {
	Open(shopperID string) (*cartsvc.Model, func())
}

// CartFetch renders the checkout table.
func CartFetch(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model, release, err := modelFor(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer release()
		responses.WriteSuccess(w, newCartView(model.Read(r.Context())))
	}
}

// CartAddItem adds a line or merges quantity into an existing one.
func CartAddItem(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model, release, err := modelFor(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer release()

		var payload cartdto.AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, _ := model.Add(r.Context(), payload.SKU, payload.Name, cartsvc.Number(payload.Price), addQuantity(payload), payload.Meta)
		responses.WriteSuccess(w, newCartView(c))
	}
}

// CartIncrement adds one unit to the row.
func CartIncrement(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return stepHandler(carts, logg, 1)
}

// CartDecrement removes one unit from the row; a row at one is removed.
func CartDecrement(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return stepHandler(carts, logg, -1)
}

func stepHandler(carts Carts, logg *logger.Logger, delta int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model, release, err := modelFor(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer release()

		key, err := itemKey(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, ok := model.Read(r.Context()).Find(key)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found"))
			return
		}

		var c cartsvc.Cart
		if cartsvc.KeyFor(item.SKU, item.Meta) == item.Key {
			c, _ = model.Add(r.Context(), item.SKU, item.Name, item.Price.InexactFloat64(), float64(delta), item.Meta)
		} else {
			// Rows whose stored key does not derive from sku and branch are
			// stepped by key so the change lands on the same row.
			c, _ = model.SetQuantity(r.Context(), item.Key, float64(item.Qty+delta))
		}
		responses.WriteSuccess(w, newCartView(c))
	}
}

// CartRemoveItem deletes the row.
func CartRemoveItem(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model, release, err := modelFor(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer release()
		key, err := itemKey(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c, _ := model.RemoveItem(r.Context(), key)
		responses.WriteSuccess(w, newCartView(c))
	}
}

// CartApplyQuantities applies every edited quantity input in one pass and
// re-renders the table.
func CartApplyQuantities(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model, release, err := modelFor(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer release()

		var payload cartdto.ApplyQuantitiesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, _ := model.ApplyQuantities(r.Context(), toQuantities(payload))
		responses.WriteSuccess(w, newCartView(c))
	}
}

// CartClear empties the cart.
func CartClear(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model, release, err := modelFor(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer release()
		responses.WriteSuccess(w, newCartView(model.Clear(r.Context())))
	}
}

func modelFor(r *http.Request, carts Carts) (*cartsvc.Model, func(), error) {
	if carts == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeInternal, "cart registry unavailable")
	}
	shopperID := middleware.ShopperIDFromContext(r.Context())
	if shopperID == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "shopper session missing")
	}
	model, release := carts.Open(shopperID)
	return model, release, nil
}

func itemKey(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "key")
	key, err := url.PathUnescape(raw)
	if err != nil || key == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid item key")
	}
	return key, nil
}
