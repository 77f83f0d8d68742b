package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/angelmondragon/storefront/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront/api/controllers/cart"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/catalog"
	checkoutsvc "github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/inventory"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront/pkg/redis"
)

const eventsHeartbeat = 25 * time.Second

// Dependencies groups what the router hands to its controllers. Nil services
// still mount their routes; the handlers answer with an internal error.
type Dependencies struct {
	Pingers     map[string]controllers.Pinger
	Sessions    sessions.Store
	Idempotency pkgredis.IdempotencyStore
	Metrics     http.Handler

	Carts     cartcontrollers.Carts
	Catalog   catalog.Service
	Inventory inventory.Service
	Checkout  checkoutsvc.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	idempotent := middleware.Idempotency(deps.Idempotency, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Shopper(deps.Sessions, cfg.Session.Name, logg))
		r.Use(middleware.InventoryAdmin(cfg.Inventory.AdminToken))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(deps.Carts, logg))
			r.Delete("/", cartcontrollers.CartClear(deps.Carts, logg))
			r.Get("/events", cartcontrollers.CartEvents(deps.Carts, logg, eventsHeartbeat))
			r.Post("/items", cartcontrollers.CartAddItem(deps.Carts, logg))
			r.Put("/items", cartcontrollers.CartApplyQuantities(deps.Carts, logg))
			r.Delete("/items/{key}", cartcontrollers.CartRemoveItem(deps.Carts, logg))
			r.Post("/items/{key}/increment", cartcontrollers.CartIncrement(deps.Carts, logg))
			r.Post("/items/{key}/decrement", cartcontrollers.CartDecrement(deps.Carts, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.CatalogList(deps.Catalog, logg))
			r.Get("/{sku}", controllers.CatalogGet(deps.Catalog, logg))
			r.Post("/{sku}/favorite", controllers.CatalogToggleFavorite(deps.Catalog, logg))
			r.Post("/{sku}/cart", controllers.CatalogAddToCart(deps.Catalog, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", controllers.InventoryGet(deps.Inventory, logg))
			r.With(idempotent).Post("/", controllers.InventoryApply(deps.Inventory, logg))
		})

		r.With(idempotent).Post("/checkout", controllers.Checkout(deps.Checkout, logg))
	})

	return r
}
