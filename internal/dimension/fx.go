package dimension

import (
	"github.com/netwatch/ispmetrics/internal/dimension/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("dimension.resolver",
	fx.Provide(repository.Provide),
)
