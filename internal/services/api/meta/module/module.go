// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"net/http"
	"time"

	"oracle/internal/core/patterns"
	"oracle/internal/modkit"
	"oracle/internal/modkit/httpkit"
	str "oracle/internal/platform/strings"

	metahttp "oracle/internal/services/api/meta/http"
)

// Module serves the unauthenticated service, readiness and rules endpoints
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler
	deps   metahttp.Deps
}

// Ports are optional collaborators surfaced by the meta endpoints
type Ports struct {
	Audit metahttp.AuditStats
	Rules *patterns.RulePack
}

// New constructs the meta module; pass Ports via modkit.WithPorts
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	md := metahttp.Deps{
		ServiceName:  "oracle-api",
		StartedAt:    time.Now(),
		ProbeTimeout: deps.Cfg.MayDuration("CORE_API_PROBE_TIMEOUT", 2*time.Second),
		PG:           deps.PG,
	}
	if deps.CH != nil {
		md.CH = deps.CH
	}
	if p, ok := b.Ports.(Ports); ok {
		md.Audit, md.Rules = p.Audit, p.Rules
	}
	return &Module{name: b.Name, prefix: b.Prefix, mws: b.Mw, deps: md}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(str.MustPrefix(m.prefix), func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		metahttp.Register(rr, m.deps)
	})
}

// Name implements modkit.Module
func (m *Module) Name() string { return str.MustString(m.name, "meta") }

// Ports implements modkit.Module
func (m *Module) Ports() any { return nil }
