package identity

import (
	"context"

	"artisan-marketplace/pkg/repository"

	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db    *gorm.DB
	users repository.Repository[User]
}

type ServiceParams struct {
	fx.In

	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:    p.DB,
		users: repository.ProvideStore[User](p.DB),
	}
}

// Upsert mirrors a profile from the auth service into the local users table.
func (s *Service) Upsert(ctx context.Context, u *User) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "role", "updated_at"}),
	}).Create(u).Error
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.users.FindOne(ctx, &User{ID: id})
}

var Module = fx.Module("identity.service",
	fx.Provide(NewService),
)
