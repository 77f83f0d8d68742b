package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/internal/cart"
	pkgcheckout "github.com/angelmondragon/storefront/pkg/checkout"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const (
	OutcomeCreated      = "created"
	OutcomeEmpty        = "empty"
	OutcomeRejected     = "rejected"
	OutcomeFailed       = "failed"
	OutcomeUnconfigured = "unconfigured"
)

// CartOpener hands out the cart model of a shopper.
type CartOpener interface {
	Open(shopperID string) (*cart.Model, func())
}

// StockReader reports current stock per sku.
type StockReader interface {
	Counts(ctx context.Context) (map[string]int, error)
}

// Observer records checkout attempts.
type Observer interface {
	ObserveCheckout(outcome string, duration time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveCheckout(string, time.Duration) {}

// ServiceParams groups dependencies for the checkout service. Stock and
// Observer are optional.
type ServiceParams struct {
	Carts    CartOpener
	Provider SessionProvider
	Stock    StockReader
	Observer Observer
	Logger   *logger.Logger
}

// Service hands a shopper's cart to the payment provider.
type Service interface {
	Start(ctx context.Context, shopperID, couponCode string) (Session, error)
}

type service struct {
	carts    CartOpener
	provider SessionProvider
	stock    StockReader
	observer Observer
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a checkout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart registry is required")
	}
	if params.Provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session provider is required")
	}
	observer := params.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		carts:    params.Carts,
		provider: params.Provider,
		stock:    params.Stock,
		observer: observer,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Start copies the cart into a session request and returns the payment page.
// The cart is left untouched.
func (s *service) Start(ctx context.Context, shopperID, couponCode string) (Session, error) {
	started := s.now()
	session, outcome, err := s.start(ctx, shopperID, couponCode)
	s.observer.ObserveCheckout(outcome, s.now().Sub(started))
	return session, err
}

func (s *service) start(ctx context.Context, shopperID, couponCode string) (Session, string, error) {
	model, release := s.carts.Open(shopperID)
	items := model.Read(ctx)
	release()
	if len(items) == 0 {
		return Session{}, OutcomeEmpty, pkgerrors.New(pkgerrors.CodeValidation, "no items provided")
	}

	if s.stock != nil {
		if err := s.checkStock(ctx, items); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
				return Session{}, OutcomeRejected, err
			}
			return Session{}, OutcomeFailed, err
		}
	}

	req := BuildRequest(items, couponCode)
	session, err := s.provider.CreateSession(ctx, req)
	switch {
	case errors.Is(err, ErrNotConfigured):
		return Session{}, OutcomeUnconfigured, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout is not available")
	case err != nil:
		s.logg.Error(ctx, "checkout.session_failed", err)
		return Session{}, OutcomeFailed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment provider unavailable")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"items":  len(req.Items),
		"coupon": req.CouponCode,
	}), "checkout.session_created")
	return session, OutcomeCreated, nil
}

func (s *service) checkStock(ctx context.Context, items cart.Cart) error {
	counts, err := s.stock.Counts(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}

	requested := make(map[string]int, len(items))
	names := make(map[string]string, len(items))
	var order []string
	for _, item := range items {
		if _, seen := requested[item.SKU]; !seen {
			order = append(order, item.SKU)
			names[item.SKU] = item.Name
		}
		requested[item.SKU] += item.Qty
	}

	inputs := make([]pkgcheckout.StockValidationInput, 0, len(order))
	for _, sku := range order {
		inputs = append(inputs, pkgcheckout.StockValidationInput{
			SKU:       sku,
			Name:      names[sku],
			Available: counts[sku],
			Requested: requested[sku],
		})
	}
	return pkgcheckout.ValidateStock(inputs)
}

// BuildRequest copies cart lines into a session request. Coupon codes are
// trimmed and upper-cased; discounts are the provider's concern.
func BuildRequest(items cart.Cart, couponCode string) SessionRequest {
	req := SessionRequest{
		Items:      make([]SessionItem, 0, len(items)),
		CouponCode: strings.ToUpper(strings.TrimSpace(couponCode)),
	}
	for _, item := range items {
		image, _ := item.Meta["image"].(string)
		req.Items = append(req.Items, SessionItem{
			SKU:   item.SKU,
			Name:  item.Name,
			Price: item.Price,
			Qty:   item.Qty,
			Image: image,
		})
	}
	return req
}
