package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/netwatch/ispmetrics/internal/config"
	"github.com/netwatch/ispmetrics/internal/dimension"
	"github.com/netwatch/ispmetrics/internal/logger"
	"github.com/netwatch/ispmetrics/internal/migration"
	"github.com/netwatch/ispmetrics/internal/monitordomain"
	"github.com/netwatch/ispmetrics/internal/observability"
	"github.com/netwatch/ispmetrics/internal/ranking"
	"github.com/netwatch/ispmetrics/internal/report"
	"github.com/netwatch/ispmetrics/internal/report/worker"
	"github.com/netwatch/ispmetrics/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		// Functional Domains
		monitordomain.Module,
		dimension.Module,
		report.Module,
		ranking.Module,
		worker.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
