// Package api provides the HTTP API for the application
package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"oracle/internal/core/narrative"
	"oracle/internal/core/patterns"
	"oracle/internal/platform/config"
	"oracle/internal/platform/logger"
	phttp "oracle/internal/platform/net/http"
	"oracle/internal/platform/net/middleware"
	"oracle/internal/platform/store"

	"oracle/internal/modkit"
	"oracle/internal/modkit/httpkit"
	"oracle/internal/modkit/module"
	"oracle/internal/modkit/swaggerkit"

	metamod "oracle/internal/services/api/meta/module"
	odomain "oracle/internal/services/api/oracle/domain"
	oraclemod "oracle/internal/services/api/oracle/module"
	auditmod "oracle/internal/services/audit/module"
	insightsmod "oracle/internal/services/insights/module"
	mattersmod "oracle/internal/services/matters/module"
	privmod "oracle/internal/services/privilege/module"
)

// Options are the API options
type Options struct {
	Config        config.Conf
	Store         *store.Store
	Logger        *logger.Logger
	EnableSwagger bool
	Profiler      phttp.ProfilerOptions

	// Completer writes narrative prose; nil renders templates
	Completer narrative.Completer

	// Archive stores briefings; nil disables the briefing endpoint
	Archive odomain.ArchivePort
}

// Mounted holds what must be shut down with the server
type Mounted struct {
	audit *auditmod.Module
}

// Close drains the audit writer
func (m *Mounted) Close(ctx context.Context) error {
	if m == nil || m.audit == nil {
		return nil
	}
	return m.audit.Close(ctx)
}

// ParseToken reads the bearer token the gateway has already verified;
// the token is the actor id
func ParseToken(token string) (string, error) {
	actor := strings.TrimSpace(token)
	if actor == "" || strings.ContainsAny(actor, " \t") {
		return "", errors.New("malformed actor")
	}
	return actor, nil
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) *Mounted {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}

	// leaf modules first; the oracle module consumes their ports
	priv := privmod.New(deps, privmod.FromConfig(deps.Cfg))
	audit := auditmod.New(deps, auditmod.FromConfig(deps.Cfg))
	matters := mattersmod.New(deps, mattersmod.FromConfig(deps.Cfg))
	insights := insightsmod.New(deps)

	pp := module.MustPortsOf[privmod.Ports](priv)
	ap := module.MustPortsOf[auditmod.Ports](audit)
	mp := module.MustPortsOf[mattersmod.Ports](matters)
	ip := module.MustPortsOf[insightsmod.Ports](insights)

	oopts := oraclemod.FromConfig(deps.Cfg)
	oracle := oraclemod.New(deps, oraclemod.Ports{
		Gate:      pp.Gate,
		Audit:     ap.Recorder,
		Snapshots: mp.Snapshots,
		History:   mp.History,
		Graph:     mp.Graph,
		Lister:    mp.Lister,
		Insights:  ip.Insights,
		Completer: opt.Completer,
		Archive:   opt.Archive,
		Auth:      httpkit.NewPortFunc(ParseToken),
	}, oopts)

	// the oracle module already panicked on a bad pack, so this load is safe
	pack, _ := patterns.LoadFile(oopts.RulesPath)
	// readiness pings must answer before a load balancer gives up
	meta := metamod.New(deps,
		modkit.WithPorts(metamod.Ports{Audit: audit, Rules: pack}),
		modkit.WithMiddlewares(middleware.Timeout(deps.Cfg.MayDuration("CORE_API_META_TIMEOUT", 3*time.Second))),
	)

	mods := []module.Module{
		meta,
		priv,
		audit,
		matters,
		insights,
		oracle,
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(httpkit.StackFromConfig(opt.Config.Prefix("CORE_API_"))), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.Profiler)

		for _, m := range mods {
			m.MountRoutes(api)
		}
	})

	return &Mounted{audit: audit}
}
