package catalog

import (
	"artisan-marketplace/services/moderation"

	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(
		NewStockLedger,
		NewService,
		fx.Annotate(
			NewAccess,
			fx.As(new(moderation.EntityAccess)),
			fx.ResultTags(`group:"moderation.access"`),
		),
	),
)
