// Package modkit provides module wiring and core deps
package modkit

import (
	"oracle/internal/modkit/module"
	"oracle/internal/modkit/repokit"
	"oracle/internal/platform/config"
	"oracle/internal/platform/logger"
	"oracle/internal/platform/store"
)

// Module is the surface the API mounts and cross wires
type Module = module.Module

// Deps holds core dependencies passed to modules
// CH is nil when ClickHouse is not configured
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
}
