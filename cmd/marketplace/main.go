package main

import (
	"context"
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"artisan-marketplace/internal/httpapi"
	"artisan-marketplace/pkg/authz"
	"artisan-marketplace/pkg/config"
	"artisan-marketplace/pkg/db"
	"artisan-marketplace/pkg/gen"
	"artisan-marketplace/pkg/health"
	"artisan-marketplace/pkg/logger"
	"artisan-marketplace/pkg/redis"
	"artisan-marketplace/pkg/sequence"
	"artisan-marketplace/pkg/server"
	"artisan-marketplace/services/campaign"
	"artisan-marketplace/services/catalog"
	"artisan-marketplace/services/identity"
	"artisan-marketplace/services/moderation"
	"artisan-marketplace/services/order"
	"artisan-marketplace/services/story"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		sequence.Module,
		authz.Module,
		gen.Module,
		health.Module,
		moderation.Module,
		identity.Module,
		catalog.Module,
		order.Module,
		campaign.Module,
		story.Module,
		httpapi.Module,
		server.Module,
		fx.Invoke(migrate),
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func migrate(lc fx.Lifecycle, gdb *gorm.DB) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return gdb.WithContext(ctx).AutoMigrate(
				&identity.User{},
				&catalog.Product{},
				&order.Order{},
				&campaign.Campaign{},
				&campaign.Donation{},
				&story.Story{},
			)
		},
	})
}
