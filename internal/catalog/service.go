package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/format"
	"github.com/angelmondragon/storefront/pkg/logger"
	"gorm.io/gorm"
)

const (
	FilterAll       = "all"
	FilterFavorites = "favorites"

	// EmptyMessage is shown whenever a listing has nothing to render.
	EmptyMessage = "No products to show."
)

// ProductView is a product decorated for one shopper.
type ProductView struct {
	Product
	PriceDisplay string `json:"price_display"`
	SoldOut      bool   `json:"sold_out"`
	Favorite     bool   `json:"favorite"`
}

// Listing is the catalog grid.
type Listing struct {
	Filter   string        `json:"filter"`
	Products []ProductView `json:"products"`
	Empty    bool          `json:"empty"`
	Message  string        `json:"message,omitempty"`
}

// FavoriteResult reports the state of a favourite after a toggle.
type FavoriteResult struct {
	SKU      string `json:"sku"`
	Favorite bool   `json:"favorite"`
}

// CartOpener hands out the cart model of a shopper.
type CartOpener interface {
	Open(shopperID string) (*cart.Model, func())
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Feed      Feed
	Favorites *Favorites
	Carts     CartOpener
	Logger    *logger.Logger
}

// Service exposes the catalog view.
type Service interface {
	List(ctx context.Context, shopperID, filter string) (Listing, error)
	Get(ctx context.Context, shopperID, sku string) (ProductView, error)
	ToggleFavorite(ctx context.Context, shopperID, sku string) (FavoriteResult, error)
	AddToCart(ctx context.Context, shopperID, sku string, qty float64, branch string) (cart.Cart, error)
}

type service struct {
	feed      Feed
	favorites *Favorites
	carts     CartOpener
	logg      *logger.Logger
}

// NewService builds a catalog service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Feed == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product feed is required")
	}
	if params.Favorites == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "favorites store is required")
	}
	if params.Carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart registry is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		feed:      params.Feed,
		favorites: params.Favorites,
		carts:     params.Carts,
		logg:      logg,
	}, nil
}

// List renders the grid. A failing feed yields an empty listing, never an error.
func (s *service) List(ctx context.Context, shopperID, filter string) (Listing, error) {
	filter = strings.ToLower(strings.TrimSpace(filter))
	switch filter {
	case "":
		filter = FilterAll
	case FilterAll, FilterFavorites:
	default:
		return Listing{}, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown filter %q", filter)
	}

	listing := Listing{Filter: filter, Products: []ProductView{}}
	products, err := s.feed.List(ctx)
	if err != nil {
		s.logg.WarnErr(ctx, "catalog.feed_unavailable", err)
		return listing.finish(), nil
	}

	favs := s.favorites.Set(ctx, shopperID)
	for _, p := range products {
		if !p.Active() {
			continue
		}
		_, fav := favs[p.SKU]
		if filter == FilterFavorites && !fav {
			continue
		}
		listing.Products = append(listing.Products, view(p, fav))
	}
	return listing.finish(), nil
}

func (l Listing) finish() Listing {
	if len(l.Products) == 0 {
		l.Empty = true
		l.Message = EmptyMessage
	}
	return l
}

// Get returns one active product.
func (s *service) Get(ctx context.Context, shopperID, sku string) (ProductView, error) {
	p, err := s.lookup(ctx, sku)
	if err != nil {
		return ProductView{}, err
	}
	_, fav := s.favorites.Set(ctx, shopperID)[p.SKU]
	return view(p, fav), nil
}

// ToggleFavorite flips the favourite state of an active product.
func (s *service) ToggleFavorite(ctx context.Context, shopperID, sku string) (FavoriteResult, error) {
	p, err := s.lookup(ctx, sku)
	if err != nil {
		return FavoriteResult{}, err
	}
	fav, persisted := s.favorites.Toggle(ctx, shopperID, p.SKU)
	if !persisted {
		s.logg.Warn(s.logg.WithField(ctx, "sku", p.SKU), "catalog.favorite_not_persisted")
	}
	return FavoriteResult{SKU: p.SKU, Favorite: fav}, nil
}

// AddToCart adds qty of an in-stock product to the shopper's cart using the
// catalog title and price.
func (s *service) AddToCart(ctx context.Context, shopperID, sku string, qty float64, branch string) (cart.Cart, error) {
	if cart.Quantity(qty) <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must be a positive number")
	}
	p, err := s.lookup(ctx, sku)
	if err != nil {
		return nil, err
	}
	if p.SoldOut() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is sold out")
	}

	meta := map[string]any{}
	if p.Image != "" {
		meta["image"] = p.Image
	}
	if branch = strings.TrimSpace(branch); branch != "" {
		meta[cart.MetaBranch] = branch
	}
	model, release := s.carts.Open(shopperID)
	defer release()
	c, _ := model.Add(ctx, p.SKU, p.Title, p.Price.InexactFloat64(), qty, meta)
	return c, nil
}

func (s *service) lookup(ctx context.Context, sku string) (Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	p, err := s.feed.FindBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !p.Active() {
		return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return p, nil
}

func view(p Product, favorite bool) ProductView {
	return ProductView{
		Product:      p,
		PriceDisplay: format.Money(p.Price),
		SoldOut:      p.SoldOut(),
		Favorite:     favorite,
	}
}
