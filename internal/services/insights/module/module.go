// Package module wires insight storage for the oracle api
package module

import (
	"oracle/internal/modkit"
	"oracle/internal/modkit/httpkit"
	"oracle/internal/services/insights/domain"
	"oracle/internal/services/insights/repo"
	"oracle/internal/services/insights/service"
)

// Ports exposed by the insights module
type Ports struct {
	Insights domain.Port
}

// Module implements the insights module; routes live on the oracle api
type Module struct {
	ports Ports
}

// New constructs the module over deps.PG
func New(deps modkit.Deps) *Module {
	return &Module{ports: Ports{Insights: service.New(deps.PG, repo.NewPG())}}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "insights" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(httpkit.Router) {}
