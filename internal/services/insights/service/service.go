// Package service reads and records insights
package service

import (
	"context"
	"time"

	"oracle/internal/core/patterns"
	"oracle/internal/modkit/repokit"
	perr "oracle/internal/platform/errors"
	"oracle/internal/platform/net/http/bind"
	"oracle/internal/services/insights/domain"
	"oracle/internal/services/insights/repo"

	"github.com/google/uuid"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Service implements domain.Port
type Service struct {
	db     repokit.TxRunner
	binder repokit.Binder[repo.Repo]
	now    func() time.Time
	newID  func() uuid.UUID
}

// New constructs the service; nil deps are wiring bugs
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo]) *Service {
	if db == nil {
		panic("insights.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("insights.Service requires a non nil Repo binder")
	}
	return &Service{db: db, binder: binder, now: time.Now, newID: uuid.New}
}

func validate(v any) error {
	if err := bind.Get().Struct(v); err != nil {
		field, msg := bind.Get().Message(err)
		return perr.WithField(perr.InvalidArgf("%s", msg), field)
	}
	return nil
}

// category accepts only pattern categories, so every insight wraps a finding
// the detector can produce
func category(s string) (string, error) {
	c, err := patterns.ParseCategory(s)
	if err != nil {
		return "", perr.WithField(perr.InvalidArgf("%v", err), "category")
	}
	return string(c), nil
}

// List returns insights newest first. A non-nil empty MatterIDs means the
// caller may read nothing, so no query runs
func (s *Service) List(ctx context.Context, f domain.Filters) ([]domain.Insight, error) {
	if f.MatterID == "" && f.ClientID == "" {
		return nil, perr.WithField(perr.InvalidArgf("matter_id or client_id is required"), "matter_id")
	}
	if err := validate(f); err != nil {
		return nil, err
	}
	if f.Category != "" {
		c, err := category(f.Category)
		if err != nil {
			return nil, err
		}
		f.Category = c
	}
	if f.MatterIDs != nil && len(f.MatterIDs) == 0 {
		return []domain.Insight{}, nil
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	out, err := s.binder.Bind(s.db).List(ctx, f)
	if err != nil {
		return nil, perr.WithOp(perr.FromPostgres(err, "list insights"), "insights.list")
	}
	if out == nil {
		out = []domain.Insight{}
	}
	return out, nil
}

// Create stores a new insight authored by actorID
func (s *Service) Create(ctx context.Context, actorID string, in domain.CreateInput) (domain.Insight, error) {
	if err := validate(in); err != nil {
		return domain.Insight{}, err
	}
	c, err := category(in.Category)
	if err != nil {
		return domain.Insight{}, err
	}
	in.Category = c
	ins := domain.Insight{
		ID:         s.newID(),
		MatterID:   in.MatterID,
		ClientID:   in.ClientID,
		Category:   in.Category,
		Severity:   in.Severity,
		Confidence: in.Confidence,
		Summary:    in.Summary,
		Evidence:   in.Evidence,
		CreatedBy:  actorID,
		CreatedAt:  s.now().UTC(),
	}
	if ins.Evidence == nil {
		ins.Evidence = []patterns.Evidence{}
	}
	if err := s.binder.Bind(s.db).Insert(ctx, ins); err != nil {
		return domain.Insight{}, perr.WithOp(perr.FromPostgres(err, "create insight"), "insights.create")
	}
	return ins, nil
}
