package monitordomain

import (
	"github.com/netwatch/ispmetrics/internal/monitordomain/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("monitordomain",
	fx.Provide(repository.Provide),
)
