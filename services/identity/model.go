package identity

import (
	"time"

	"artisan-marketplace/pkg/authz"
)

// User is the profile row behind an authenticated principal. Session
// issuance lives in the external auth service; these rows exist so listing
// queries can join a creator's display name.
type User struct {
	ID          string     `gorm:"column:id;primaryKey"`
	DisplayName string     `gorm:"column:display_name;type:varchar(255);not null"`
	Role        authz.Role `gorm:"column:role;type:varchar(20);not null;default:'buyer'"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
