// Package module wires matter loading for the analysis surfaces
package module

import (
	"oracle/internal/modkit"
	"oracle/internal/modkit/httpkit"
	"oracle/internal/services/matters/domain"
	"oracle/internal/services/matters/repo"
	"oracle/internal/services/matters/service"
)

// Ports exposed by the matters module
type Ports struct {
	Snapshots domain.SnapshotPort
	History   domain.HistoryPort
	Lister    domain.ListPort
	Graph     domain.GraphPort
}

// Module implements the matters module; it has no routes of its own
type Module struct {
	ports Ports
}

// New constructs the module over deps.PG
func New(deps modkit.Deps, opts Options) *Module {
	svc := service.New(deps.PG, repo.NewPG(), service.Config{
		SimilarityFloor: opts.SimilarityFloor,
		ComparableLimit: opts.ComparableLimit,
	})
	return &Module{ports: Ports{Snapshots: svc, History: svc, Lister: svc, Graph: svc}}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "matters" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(httpkit.Router) {}
