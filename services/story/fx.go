package story

import (
	"artisan-marketplace/services/moderation"

	"go.uber.org/fx"
)

var Module = fx.Module("story.service",
	fx.Provide(
		NewService,
		fx.Annotate(
			NewAccess,
			fx.As(new(moderation.EntityAccess)),
			fx.ResultTags(`group:"moderation.access"`),
		),
	),
)
