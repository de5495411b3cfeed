package ranking

import (
	"github.com/netwatch/ispmetrics/internal/ranking/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ranking.service",
	fx.Provide(service.NewService),
)
