package campaign

import (
	"context"
	"errors"
	"time"

	"artisan-marketplace/pkg/db/pagination"
	"artisan-marketplace/services/moderation"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Access adapts the campaigns table to the moderation gate.
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
	return moderation.KindCampaign
}

func (a *Access) ListByStatus(ctx context.Context, status moderation.Status, page pagination.Pagination) ([]*moderation.ReviewItem, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 10
	}

	var items []*moderation.ReviewItem
	err := a.db.WithContext(ctx).Table("campaigns").
		Select("campaigns.id, campaigns.title, campaigns.moderation_status AS status, campaigns.organizer_id AS creator_id, users.display_name AS creator_name, campaigns.created_at").
		Joins("LEFT JOIN users ON users.id = campaigns.organizer_id").
		Where("campaigns.moderation_status = ?", status).
		Order("campaigns.created_at ASC").
		Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		it.Kind = moderation.KindCampaign
	}
	return items, nil
}

func (a *Access) SetStatus(ctx context.Context, id string, status moderation.Status, reason string) (bool, error) {
	var c Campaign
	err := a.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, a.db.WithContext(ctx).Model(&Campaign{}).Where("id = ?", id).Updates(map[string]any{
		"moderation_status": status,
		"rejection_reason":  reason,
		"updated_at":        time.Now(),
	}).Error
}
