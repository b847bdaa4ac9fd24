// Package http provides http transport for the oracle api
package http

import (
	stdhttp "net/http"
	"strconv"

	"oracle/internal/modkit/httpkit"
	perr "oracle/internal/platform/errors"
	"oracle/internal/services/api/oracle/domain"
	"oracle/internal/services/api/oracle/service"
	idomain "oracle/internal/services/insights/domain"

	"github.com/go-chi/chi/v5"
)

// Register mounts oracle endpoints on the given router
func Register(r httpkit.Router, s *service.Service) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.DiagnosticInput](r, "/diagnostic", h.diagnostic)
	httpkit.PostJSON[domain.QueryInput](r, "/query", h.query)
	httpkit.Get(r, "/insights", h.listInsights)
	httpkit.PostJSON[idomain.CreateInput](r, "/insights", h.createInsight)
	httpkit.Get(r, "/matters/{matterID}/360", h.matter360)
	httpkit.Get(r, "/matters/{matterID}/forecast", h.forecast)
	httpkit.PostJSON[domain.ScoreInput](r, "/score", h.score)
	httpkit.PostJSON[domain.BriefingInput](r, "/briefings", h.briefing)
}

type handlers struct{ svc *service.Service }

// diagnostic detects patterns, scores risk and narrates one matter or client
func (h *handlers) diagnostic(r *stdhttp.Request, in domain.DiagnosticInput) (any, error) {
	actor, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Diagnostic(r.Context(), actor, in)
}

// query accepts a free-text question in one of the analysis modes
func (h *handlers) query(r *stdhttp.Request, in domain.QueryInput) (any, error) {
	actor, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	out, err := h.svc.Query(r.Context(), actor, in)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(out), nil
}

// listInsights filters stored insights by matter or client; limit is 1..200
func (h *handlers) listInsights(r *stdhttp.Request) (any, error) {
	actor, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	f := idomain.Filters{
		MatterID: q.Get("matter_id"),
		ClientID: q.Get("client_id"),
		Category: q.Get("category"),
		Severity: q.Get("severity"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, perr.WithField(perr.InvalidArgf("limit must be an integer"), "limit")
		}
		f.Limit = n
	}
	return h.svc.ListInsights(r.Context(), actor, f)
}

// createInsight promotes a finding to a stored insight
func (h *handlers) createInsight(r *stdhttp.Request, in idomain.CreateInput) (any, error) {
	actor, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	ins, err := h.svc.CreateInsight(r.Context(), actor, in)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(ins), nil
}

func (h *handlers) matter360(r *stdhttp.Request) (any, error) {
	actor, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Matter360(r.Context(), actor, chi.URLParam(r, "matterID"))
}

// forecast projects trajectory and cost for a matter
func (h *handlers) forecast(r *stdhttp.Request) (any, error) {
	actor, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Forecast(r.Context(), actor, chi.URLParam(r, "matterID"))
}

// score runs a what-if composite score over caller supplied factors
func (h *handlers) score(r *stdhttp.Request, in domain.ScoreInput) (any, error) {
	actor, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Score(r.Context(), actor, in)
}

// briefing narrates a matter and archives the document
func (h *handlers) briefing(r *stdhttp.Request, in domain.BriefingInput) (any, error) {
	actor, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	out, err := h.svc.Briefing(r.Context(), actor, in)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(out), nil
}
