package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revbox/internal/agent"
	"github.com/smallbiznis/revbox/internal/carrier"
	"github.com/smallbiznis/revbox/internal/clock"
	"github.com/smallbiznis/revbox/internal/config"
	"github.com/smallbiznis/revbox/internal/conflict"
	"github.com/smallbiznis/revbox/internal/customfield"
	"github.com/smallbiznis/revbox/internal/dashboard"
	"github.com/smallbiznis/revbox/internal/export"
	"github.com/smallbiznis/revbox/internal/janitor"
	"github.com/smallbiznis/revbox/internal/migration"
	"github.com/smallbiznis/revbox/internal/observability"
	"github.com/smallbiznis/revbox/internal/payout"
	"github.com/smallbiznis/revbox/internal/providers"
	"github.com/smallbiznis/revbox/internal/ratelimit"
	"github.com/smallbiznis/revbox/internal/record"
	"github.com/smallbiznis/revbox/internal/server"
	"github.com/smallbiznis/revbox/internal/storage"
	"github.com/smallbiznis/revbox/internal/upload"
	"github.com/smallbiznis/revbox/pkg/db"
	"github.com/smallbiznis/revbox/pkg/lock"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		lock.Module,
		storage.Module,
		providers.Module,
		ratelimit.Module,

		// Configuration domains
		carrier.Module,
		agent.Module,
		customfield.Module,

		// Ingestion and reconciliation
		record.Module,
		conflict.Module,
		upload.Module,
		payout.Module,
		export.Module,
		dashboard.Module,

		janitor.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
