package story

import (
	"time"

	"artisan-marketplace/services/moderation"
)

// Story is long-form content behind two independent switches: the
// moderation state and the author's publish flag.
type Story struct {
	ID               string `gorm:"column:id;primaryKey"`
	AuthorID         string `gorm:"column:author_id;index;not null"`
	Title            string `gorm:"column:title;type:varchar(255);not null"`
	Body             string `gorm:"column:body;type:text"`
	moderation.State `gorm:"embedded"`
	IsPublished      bool      `gorm:"column:is_published;not null;default:false"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Story) TableName() string {
	return "stories"
}

// Visible reports whether the story appears in public listings. Approval
// alone is not enough; the author must also have published it.
func (s *Story) Visible() bool {
	return s.PubliclyVisible() && s.IsPublished
}
