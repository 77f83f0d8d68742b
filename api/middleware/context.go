package middleware

import "context"

type contextKey string

const (
	ctxShopperID      contextKey = "shopper_id"
	ctxInventoryAdmin contextKey = "inventory_admin"
)

func ShopperIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxShopperID).(string); ok {
		return v
	}
	return ""
}

// WithShopperID injects the shopper identifier into the context.
func WithShopperID(ctx context.Context, shopperID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxShopperID, shopperID)
}

// IsInventoryAdmin reports whether the request presented the inventory admin token.
func IsInventoryAdmin(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(ctxInventoryAdmin).(bool)
	return v
}

func withInventoryAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxInventoryAdmin, true)
}
