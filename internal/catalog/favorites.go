package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront/pkg/storage"
)

const favoritesPrefix = "sf:favs:"

// FavoritesKey is the storage key holding a shopper's favourite skus.
func FavoritesKey(shopperID string) string {
	return favoritesPrefix + shopperID
}

// Favorites keeps per-shopper favourite sku lists in the storage adapter.
type Favorites struct {
	store *storage.Adapter
	mu    sync.Mutex
}

func NewFavorites(store *storage.Adapter) *Favorites {
	return &Favorites{store: store}
}

// List returns the shopper's favourites in the order they were added.
func (f *Favorites) List(ctx context.Context, shopperID string) []string {
	raw := storage.Get[[]string](ctx, f.store, FavoritesKey(shopperID), nil)
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, sku := range raw {
		sku = strings.TrimSpace(sku)
		if sku == "" {
			continue
		}
		if _, dup := seen[sku]; dup {
			continue
		}
		seen[sku] = struct{}{}
		out = append(out, sku)
	}
	return out
}

// Set returns the favourites as a lookup set.
func (f *Favorites) Set(ctx context.Context, shopperID string) map[string]struct{} {
	list := f.List(ctx, shopperID)
	set := make(map[string]struct{}, len(list))
	for _, sku := range list {
		set[sku] = struct{}{}
	}
	return set
}

// Toggle flips sku in the shopper's favourites. It reports the new state and
// whether it reached storage.
func (f *Favorites) Toggle(ctx context.Context, shopperID, sku string) (bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	list := f.List(ctx, shopperID)
	next := make([]string, 0, len(list)+1)
	removed := false
	for _, existing := range list {
		if existing == sku {
			removed = true
			continue
		}
		next = append(next, existing)
	}
	if !removed {
		next = append(next, sku)
	}
	return !removed, f.store.Set(ctx, FavoritesKey(shopperID), next)
}
