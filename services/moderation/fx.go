package moderation

import "go.uber.org/fx"

var Module = fx.Module("moderation.gate",
	fx.Provide(NewGate),
)
