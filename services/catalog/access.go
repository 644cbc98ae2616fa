package catalog

import (
	"context"
	"errors"
	"time"

	"artisan-marketplace/pkg/db/pagination"
	"artisan-marketplace/services/moderation"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Access adapts the products table to the moderation gate.
type Access struct {
	db *gorm.DB
}

type AccessParams struct {
	fx.In

	DB *gorm.DB
}

func NewAccess(p AccessParams) *Access {
	return &Access{db: p.DB}
}

func (a *Access) Kind() moderation.Kind {
	return moderation.KindProduct
}

func (a *Access) ListByStatus(ctx context.Context, status moderation.Status, page pagination.Pagination) ([]*moderation.ReviewItem, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 10
	}

	var items []*moderation.ReviewItem
	err := a.db.WithContext(ctx).Table("products").
		Select("products.id, products.name AS title, products.moderation_status AS status, products.owner_id AS creator_id, users.display_name AS creator_name, products.created_at").
		Joins("LEFT JOIN users ON users.id = products.owner_id").
		Where("products.moderation_status = ?", status).
		Order("products.created_at ASC").
		Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		it.Kind = moderation.KindProduct
	}
	return items, nil
}

func (a *Access) SetStatus(ctx context.Context, id string, status moderation.Status, reason string) (bool, error) {
	var product Product
	err := a.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, a.db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).Updates(map[string]any{
		"moderation_status": status,
		"rejection_reason":  reason,
		"updated_at":        time.Now(),
	}).Error
}
