package story

import (
	"context"
	"errors"
	"time"

	"artisan-marketplace/pkg/db/pagination"
	"artisan-marketplace/services/moderation"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Access adapts the stories table to the moderation gate.
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
	return moderation.KindStory
}

func (a *Access) ListByStatus(ctx context.Context, status moderation.Status, page pagination.Pagination) ([]*moderation.ReviewItem, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 10
	}

	var items []*moderation.ReviewItem
	err := a.db.WithContext(ctx).Table("stories").
		Select("stories.id, stories.title, stories.moderation_status AS status, stories.author_id AS creator_id, users.display_name AS creator_name, stories.created_at").
		Joins("LEFT JOIN users ON users.id = stories.author_id").
		Where("stories.moderation_status = ?", status).
		Order("stories.created_at ASC").
		Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		it.Kind = moderation.KindStory
	}
	return items, nil
}

func (a *Access) SetStatus(ctx context.Context, id string, status moderation.Status, reason string) (bool, error) {
	var st Story
	err := a.db.WithContext(ctx).Where("id = ?", id).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, a.db.WithContext(ctx).Model(&Story{}).Where("id = ?", id).Updates(map[string]any{
		"moderation_status": status,
		"rejection_reason":  reason,
		"updated_at":        time.Now(),
	}).Error
}
