package loader

import (
	"github.com/smallbiznis/sparkify/internal/schema"
	"go.uber.org/fx"
)

var Module = fx.Module("loader",
	fx.Provide(
		func(m *schema.Manager) Schema { return m },
		New,
	),
)
