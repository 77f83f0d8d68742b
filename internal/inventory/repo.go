package inventory

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errInsufficientStock = errors.New("insufficient stock")

type countRecord struct {
	SKU       string    `gorm:"column:sku;primaryKey"`
	Qty       int       `gorm:"column:qty"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (countRecord) TableName() string { return "inventory_counts" }

// Repository persists per-sku stock counters.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an inventory repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Counts returns every known counter.
func (r *Repository) Counts(ctx context.Context) (map[string]int, error) {
	var rows []countRecord
	if err := r.db.WithContext(ctx).Order("sku ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.SKU] = row.Qty
	}
	return counts, nil
}

// Count returns the counter for sku; unknown skus have zero stock.
func (r *Repository) Count(ctx context.Context, sku string) (int, error) {
	return countIn(r.db.WithContext(ctx), sku)
}

func countIn(tx *gorm.DB, sku string) (int, error) {
	var rows []countRecord
	if err := tx.Where("sku = ?", sku).Limit(1).Find(&rows).Error; err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Qty, nil
}

// SetCounts overwrites the given counters in one transaction.
func (r *Repository) SetCounts(ctx context.Context, counts map[string]int) error {
	if len(counts) == 0 {
		return nil
	}
	now := time.Now().UTC()
	records := make([]countRecord, 0, len(counts))
	for sku, qty := range counts {
		records = append(records, countRecord{SKU: sku, Qty: max(qty, 0), UpdatedAt: now})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].SKU < records[j].SKU })

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sku"}},
			DoUpdates: clause.AssignmentColumns([]string{"qty", "updated_at"}),
		}).Create(&records).Error
	})
}

// Decrement takes need[sku] units from every counter or from none of them.
// On shortage it returns the offending lines in the order given by skus.
func (r *Repository) Decrement(ctx context.Context, skus []string, need map[string]int) (map[string]int, []Shortage, error) {
	var (
		missing []Shortage
		updated map[string]int
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		missing = nil
		updated = make(map[string]int, len(skus))
		for _, sku := range skus {
			n := need[sku]
			if n <= 0 {
				continue
			}
			res := tx.Model(&countRecord{}).
				Where("sku = ? AND qty >= ?", sku, n).
				Updates(map[string]any{
					"qty":        gorm.Expr("qty - ?", n),
					"updated_at": time.Now().UTC(),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				have, err := countIn(tx, sku)
				if err != nil {
					return err
				}
				missing = append(missing, Shortage{SKU: sku, Have: have, Need: n})
			}
		}
		if len(missing) > 0 {
			return errInsufficientStock
		}
		for _, sku := range skus {
			qty, err := countIn(tx, sku)
			if err != nil {
				return err
			}
			updated[sku] = qty
		}
		return nil
	})
	if errors.Is(err, errInsufficientStock) {
		return nil, missing, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return updated, nil, nil
}
