package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRecord struct {
	SKU         string          `gorm:"column:sku;primaryKey"`
	Title       string          `gorm:"column:title"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	Image       string          `gorm:"column:image"`
	Status      string          `gorm:"column:status"`
	Description string          `gorm:"column:description"`
	Tags        string          `gorm:"column:tags"`
	Position    int             `gorm:"column:position"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

type productRow struct {
	SKU         string
	Title       string
	Price       decimal.Decimal
	Qty         int
	Image       string
	Status      string
	Description string
	Tags        string
}

func (r productRow) toProduct() Product {
	return Product{
		SKU:         r.SKU,
		Title:       r.Title,
		Price:       r.Price,
		Qty:         r.Qty,
		Image:       r.Image,
		Status:      r.Status,
		Description: r.Description,
		Tags:        splitTags(r.Tags),
	}
}

var productColumns = []string{
	"p.sku AS sku",
	"p.title AS title",
	"p.price AS price",
	"COALESCE(ic.qty, 0) AS qty",
	"p.image AS image",
	"p.status AS status",
	"p.description AS description",
	"p.tags AS tags",
}

// Repository reads products joined with their inventory counts.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) base(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("products AS p").
		Select(strings.Join(productColumns, ", ")).
		Joins("LEFT JOIN inventory_counts ic ON ic.sku = p.sku")
}

// List returns the active products in display order.
func (r *Repository) List(ctx context.Context) ([]Product, error) {
	var rows []productRow
	if err := r.base(ctx).
		Where("p.status = ?", StatusActive).
		Order("p.position ASC").
		Order("p.sku ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toProduct())
	}
	return products, nil
}

// FindBySKU returns a product regardless of status, or gorm.ErrRecordNotFound.
func (r *Repository) FindBySKU(ctx context.Context, sku string) (Product, error) {
	var rows []productRow
	if err := r.base(ctx).
		Where("p.sku = ?", sku).
		Limit(1).
		Scan(&rows).Error; err != nil {
		return Product{}, err
	}
	if len(rows) == 0 {
		return Product{}, gorm.ErrRecordNotFound
	}
	return rows[0].toProduct(), nil
}

// Upsert inserts the product or replaces its catalog fields. Stock lives in
// inventory_counts and is not touched.
func (r *Repository) Upsert(ctx context.Context, p Product, position int) error {
	now := time.Now().UTC()
	record := productRecord{
		SKU:         p.SKU,
		Title:       p.Title,
		Price:       p.Price,
		Image:       p.Image,
		Status:      p.Status,
		Description: p.Description,
		Tags:        joinTags(p.Tags),
		Position:    position,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sku"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "price", "image", "status", "description", "tags", "position", "updated_at"}),
		}).
		Create(&record).Error
}
