package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const inventoryAdminHeader = "X-Inventory-Admin"

// InventoryAdmin flags requests whose X-Inventory-Admin header matches token.
// It never rejects; handlers decide which operations need the flag. An empty
// token disables admin access entirely.
func InventoryAdmin(token string) func(http.Handler) http.Handler {
	expected := []byte(strings.TrimSpace(token))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := []byte(strings.TrimSpace(r.Header.Get(inventoryAdminHeader)))
			if len(expected) > 0 && subtle.ConstantTimeCompare(presented, expected) == 1 {
				r = r.WithContext(withInventoryAdmin(r.Context()))
			}
			next.ServeHTTP(w, r)
		})
	}
}
