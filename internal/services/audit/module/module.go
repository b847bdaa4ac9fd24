// Package module wires the audit recorder
package module

import (
	"context"
	"strings"

	"oracle/internal/modkit"
	"oracle/internal/modkit/httpkit"
	"oracle/internal/platform/logger"
	"oracle/internal/services/audit/domain"
	"oracle/internal/services/audit/repo"
	"oracle/internal/services/audit/service"
)

// Ports exposed by the audit module
type Ports struct {
	Recorder domain.RecorderPort
}

// Module owns the background writer
type Module struct {
	writer *service.Writer
	ports  Ports
}

// New picks a sink and starts the writer; auto prefers clickhouse
func New(deps modkit.Deps, opts Options) *Module {
	sink := pickSink(deps, opts.Sink)
	logger.Named("audit-writer").Info().Str("sink", sink.Name()).Msg("audit writer starting")

	w := service.New(sink, service.Config{
		QueueSize:    opts.QueueSize,
		BatchSize:    opts.BatchSize,
		FlushEvery:   opts.FlushEvery,
		WriteTimeout: opts.WriteTimeout,
	})
	return &Module{writer: w, ports: Ports{Recorder: w}}
}

func pickSink(deps modkit.Deps, choice string) domain.Sink {
	switch strings.ToLower(choice) {
	case SinkClickhouse:
		return repo.NewCH(deps.CH)
	case SinkPostgres:
		return repo.NewPG(deps.PG)
	}
	if deps.CH != nil {
		return repo.NewCH(deps.CH)
	}
	return repo.NewPG(deps.PG)
}

// Stats reports the writer counters since start
func (m *Module) Stats() (written, failed int64) { return m.writer.Stats() }

// Close drains pending entries
func (m *Module) Close(ctx context.Context) error { return m.writer.Close(ctx) }

// Name satisfies modkit.Module
func (m *Module) Name() string { return "audit" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(httpkit.Router) {}
