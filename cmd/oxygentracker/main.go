package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/user7217/oxygentracker/internal/clock"
	"github.com/user7217/oxygentracker/internal/config"
	"github.com/user7217/oxygentracker/internal/logger"
	"github.com/user7217/oxygentracker/internal/migration"
	"github.com/user7217/oxygentracker/internal/scheduler"
	"github.com/user7217/oxygentracker/internal/server"
	"github.com/user7217/oxygentracker/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
		scheduler.Module,
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
