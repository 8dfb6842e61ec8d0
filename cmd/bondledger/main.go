package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/coopworks/bondledger/internal/config"
	"github.com/coopworks/bondledger/internal/logger"
	"github.com/coopworks/bondledger/internal/migration"
	"github.com/coopworks/bondledger/internal/server"
	"github.com/coopworks/bondledger/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		server.Module,
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
