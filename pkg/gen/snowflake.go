package gen

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

var Module = fx.Module("gen",
	fx.Provide(NewSnowflakeNode),
)

// NewSnowflakeNode builds the process-wide id generator. Single-node
// deployments keep node id 1; scaled-out deployments must assign distinct
// node ids or snowflakes collide.
func NewSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
