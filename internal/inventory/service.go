package inventory

import (
	"context"
	"math"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const (
	OpDecrement = "decrement"
	OpSet       = "set"

	maxUnits = 1_000_000_000
)

// Line is one {sku, qty} entry of an inventory operation.
type Line struct {
	SKU string  `json:"sku"`
	Qty float64 `json:"qty"`
}

// Shortage describes a decrement line that lacks stock.
type Shortage struct {
	SKU  string `json:"sku"`
	Have int    `json:"have"`
	Need int    `json:"need"`
}

// Count is the stock of a single sku.
type Count struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

// ServiceParams groups dependencies for the inventory service.
type ServiceParams struct {
	Repo   *Repository
	Logger *logger.Logger
}

// Service exposes the inventory counters.
type Service interface {
	Counts(ctx context.Context) (map[string]int, error)
	Count(ctx context.Context, sku string) (Count, error)
	Apply(ctx context.Context, op string, lines []Line, admin bool) (map[string]int, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService builds an inventory service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory repo is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: params.Repo, logg: logg}, nil
}

func (s *service) Counts(ctx context.Context) (map[string]int, error) {
	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	return counts, nil
}

func (s *service) Count(ctx context.Context, sku string) (Count, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return Count{}, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	qty, err := s.repo.Count(ctx, sku)
	if err != nil {
		return Count{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	return Count{SKU: sku, Qty: qty}, nil
}

// Apply runs op over lines. Decrement returns the touched counters; set
// requires admin and returns every counter.
func (s *service) Apply(ctx context.Context, op string, lines []Line, admin bool) (map[string]int, error) {
	op = strings.ToLower(strings.TrimSpace(op))
	if op == "" || len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing op or items")
	}

	switch op {
	case OpDecrement:
		return s.decrement(ctx, lines)
	case OpSet:
		if !admin {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "inventory admin token required")
		}
		return s.set(ctx, lines)
	default:
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown op %q", op)
	}
}

func (s *service) decrement(ctx context.Context, lines []Line) (map[string]int, error) {
	var skus []string
	need := make(map[string]int, len(lines))
	for _, line := range lines {
		sku := strings.TrimSpace(line.SKU)
		if sku == "" {
			continue
		}
		if _, seen := need[sku]; !seen {
			skus = append(skus, sku)
			need[sku] = 0
		}
		if n := units(line.Qty); n > 0 {
			need[sku] += n
		}
	}

	updated, missing, err := s.repo.Decrement(ctx, skus, need)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement inventory")
	}
	if len(missing) > 0 {
		s.logg.Warn(s.logg.WithField(ctx, "missing", missing), "inventory.insufficient_stock")
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
			WithDetails(map[string]any{"missing": missing})
	}
	return updated, nil
}

func (s *service) set(ctx context.Context, lines []Line) (map[string]int, error) {
	counts := make(map[string]int, len(lines))
	for _, line := range lines {
		sku := strings.TrimSpace(line.SKU)
		if sku == "" {
			continue
		}
		counts[sku] = max(units(line.Qty), 0)
	}
	if err := s.repo.SetCounts(ctx, counts); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set inventory")
	}
	s.logg.Info(s.logg.WithField(ctx, "skus", len(counts)), "inventory.set")
	return s.Counts(ctx)
}

func units(qty float64) int {
	if math.IsNaN(qty) || math.IsInf(qty, 0) {
		return 0
	}
	return int(math.Floor(math.Max(math.Min(qty, maxUnits), -maxUnits)))
}
