// Package module wires the privilege gate for other modules
package module

import (
	"oracle/internal/modkit"
	"oracle/internal/modkit/httpkit"
	"oracle/internal/services/privilege/domain"
	"oracle/internal/services/privilege/repo"
	"oracle/internal/services/privilege/service"
)

// Ports exposed by the privilege module
type Ports struct {
	Gate domain.GatePort
}

// Module implements the privilege module; it has no routes
type Module struct {
	ports Ports
}

// New constructs the module over deps.PG
func New(deps modkit.Deps, opts Options) *Module {
	gate := service.New(deps.PG, repo.NewPG(), service.Config{CacheTTL: opts.CacheTTL})
	return &Module{ports: Ports{Gate: gate}}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "privilege" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(httpkit.Router) {}
