// Package http serves the unauthenticated meta endpoints
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"oracle/internal/core/patterns"
	"oracle/internal/core/version"
	"oracle/internal/modkit/httpkit"
)

// Pinger is satisfied by the pg and ch adapters
type Pinger interface {
	Ping(context.Context) error
}

// AuditStats reports audit writer counters
type AuditStats interface {
	Stats() (written, failed int64)
}

// Deps are the handler dependencies; PG and CH may be nil or non pingers
type Deps struct {
	ServiceName  string
	StartedAt    time.Time
	ProbeTimeout time.Duration
	PG           any
	CH           any
	Audit        AuditStats
	Rules        *patterns.RulePack
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	if d.ProbeTimeout <= 0 {
		d.ProbeTimeout = 2 * time.Second
	}
	h := &handlers{deps: d}
	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
	httpkit.Get(r, "/rules", h.rules)
}

type handlers struct{ deps Deps }

// Probe statuses
const (
	ProbeOK      = "ok"
	ProbeFail    = "fail"
	ProbeSkipped = "skipped"
	ProbeUnknown = "unknown"
)

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Now     string `json:"now"`
}

// ReadyCheck is one dependency probe
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	TookMS int64  `json:"took_ms"`
}

// AuditCounters are the audit writer totals since start
type AuditCounters struct {
	Written int64 `json:"written"`
	Failed  int64 `json:"failed"`
}

// ReadyResponse is ok when every probe passed, fail when any failed,
// degraded otherwise
type ReadyResponse struct {
	Status string         `json:"status"`
	Checks []ReadyCheck   `json:"checks"`
	Audit  *AuditCounters `json:"audit,omitempty"`
	Now    string         `json:"now"`
}

// ServiceResponse describes the running process
type ServiceResponse struct {
	Name    string `json:"name"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime_seconds"`
}

// RulesResponse reports the active rule pack
type RulesResponse struct {
	PackVersion int                 `json:"pack_version"`
	Categories  []patterns.Category `json:"categories"`
	Bands       patterns.Bands      `json:"severity_bands"`
	Build       version.BuildInfo   `json:"build"`
}

func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{OK: true, Service: h.deps.ServiceName, Now: stamp(time.Now())}, nil
}

func (h *handlers) ready(r *http.Request) (any, error) {
	ctx := context.Background()
	if r != nil {
		ctx = r.Context()
	}
	ctx, cancel := context.WithTimeout(ctx, h.deps.ProbeTimeout)
	defer cancel()

	targets := []struct {
		name string
		dep  any
	}{{"pg", h.deps.PG}, {"ch", h.deps.CH}}

	checks := make([]ReadyCheck, len(targets))
	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			checks[i] = probe(ctx, t.name, t.dep)
		}()
	}
	wg.Wait()

	out := ReadyResponse{Status: overall(checks), Checks: checks, Now: stamp(time.Now())}
	if h.deps.Audit != nil {
		w, f := h.deps.Audit.Stats()
		out.Audit = &AuditCounters{Written: w, Failed: f}
	}
	return out, nil
}

func probe(ctx context.Context, name string, dep any) ReadyCheck {
	c := ReadyCheck{Name: name, Status: ProbeUnknown}
	if dep == nil {
		c.Status = ProbeSkipped
		return c
	}
	p, ok := dep.(Pinger)
	if !ok {
		return c
	}
	start := time.Now()
	err := p.Ping(ctx)
	c.TookMS = time.Since(start).Milliseconds()
	if err != nil {
		c.Status, c.Error = ProbeFail, err.Error()
		return c
	}
	c.Status = ProbeOK
	return c
}

func overall(checks []ReadyCheck) string {
	status := ProbeOK
	for _, c := range checks {
		switch c.Status {
		case ProbeFail:
			return ProbeFail
		case ProbeOK:
		default:
			status = "degraded"
		}
	}
	return status
}

func (h *handlers) version(_ *http.Request) (any, error) { return version.Info(), nil }

func (h *handlers) service(_ *http.Request) (any, error) {
	return ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: stamp(h.deps.StartedAt),
		Uptime:  int64(time.Since(h.deps.StartedAt) / time.Second),
	}, nil
}

func (h *handlers) rules(_ *http.Request) (any, error) {
	out := RulesResponse{Categories: patterns.Categories(), Build: version.Info()}
	if h.deps.Rules != nil {
		out.PackVersion = h.deps.Rules.Version
		out.Bands = h.deps.Rules.Bands
	}
	return out, nil
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }
