// Package module wires the oracle api into HTTP via modkit
package module

import (
	"net/http"

	"oracle/internal/core/narrative"
	"oracle/internal/core/patterns"
	"oracle/internal/modkit"
	"oracle/internal/modkit/httpkit"
	"oracle/internal/platform/net/middleware"
	"oracle/internal/platform/strings"
	"oracle/internal/services/api/oracle/domain"
	oraclehttp "oracle/internal/services/api/oracle/http"
	"oracle/internal/services/api/oracle/service"
	adomain "oracle/internal/services/audit/domain"
	idomain "oracle/internal/services/insights/domain"
	mdomain "oracle/internal/services/matters/domain"
	pdomain "oracle/internal/services/privilege/domain"
)

// Ports are the collaborators other modules provide; Completer and Archive
// are optional
type Ports struct {
	Gate      pdomain.GatePort
	Audit     adomain.RecorderPort
	Snapshots mdomain.SnapshotPort
	History   mdomain.HistoryPort
	Graph     mdomain.GraphPort
	Lister    mdomain.ListPort
	Insights  idomain.Port
	Completer narrative.Completer
	Archive   domain.ArchivePort
	Auth      middleware.AuthPort
}

// Module implements the oracle api module
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler
	auth   middleware.AuthPort
	svc    *service.Service
}

// New constructs the oracle module. A bad rule pack is a wiring bug and panics
func New(deps modkit.Deps, ports Ports, opts Options, mopts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("oracle"), modkit.WithPrefix("/oracle")}, mopts...)...)

	pack, err := patterns.LoadFile(opts.RulesPath)
	if err != nil {
		panic(err)
	}
	svc := service.New(service.Deps{
		Gate:      ports.Gate,
		Audit:     ports.Audit,
		Snapshots: ports.Snapshots,
		History:   ports.History,
		Graph:     ports.Graph,
		Lister:    ports.Lister,
		Insights:  ports.Insights,
		Detector:  patterns.New(pack),
		Narrator:  narrative.NewGenerator(ports.Completer),
		Archive:   ports.Archive,
	}, service.Config{
		Forecast:         opts.Forecast,
		ComparableLimit:  opts.ComparableLimit,
		HistoryTimeout:   opts.HistoryTimeout,
		NarrativeTimeout: opts.NarrativeTimeout,
		InsightLimit:     opts.InsightLimit,
	})
	return &Module{name: b.Name, prefix: b.Prefix, mws: b.Mw, auth: ports.Auth, svc: svc}
}

// MountRoutes mounts the module routes behind bearer auth
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(strings.MustPrefix(m.prefix), func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		httpkit.Protected(rr, m.auth, func(pr httpkit.Router) {
			oraclehttp.Register(pr, m.svc)
		})
	})
}

// Name is the module name
func (m *Module) Name() string { return strings.MustString(m.name, "module name") }

// Ports returns nothing; the oracle is a leaf
func (m *Module) Ports() any { return nil }
