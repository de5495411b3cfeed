package report

import (
	"github.com/netwatch/ispmetrics/internal/report/repository"
	"github.com/netwatch/ispmetrics/internal/report/service"
	"go.uber.org/fx"
)

var Module = fx.Module("report.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewProcessor),
)
