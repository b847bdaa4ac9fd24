// Package service orchestrates privilege checks, analysis and auditing for
// the oracle api. Every gated call audits exactly once: a denial records an
// access-denied entry, anything past the gate records its outcome
package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"oracle/internal/core/forecast"
	"oracle/internal/core/matter"
	"oracle/internal/core/narrative"
	"oracle/internal/core/patterns"
	"oracle/internal/core/risk"
	perr "oracle/internal/platform/errors"
	"oracle/internal/platform/logger"
	"oracle/internal/services/api/oracle/domain"
	adomain "oracle/internal/services/audit/domain"
	idomain "oracle/internal/services/insights/domain"
	mdomain "oracle/internal/services/matters/domain"
	pdomain "oracle/internal/services/privilege/domain"
	privilege "oracle/internal/services/privilege/service"

	"github.com/google/uuid"
)

// Deps are the collaborators the oracle needs; Archive is optional
type Deps struct {
	Gate      pdomain.GatePort
	Audit     adomain.RecorderPort
	Snapshots mdomain.SnapshotPort
	History   mdomain.HistoryPort
	Graph     mdomain.GraphPort
	Lister    mdomain.ListPort
	Insights  idomain.Port
	Detector  *patterns.Detector
	Narrator  *narrative.Generator
	Archive   domain.ArchivePort
}

// Config tunes the orchestration
type Config struct {
	Forecast         forecast.Options
	ComparableLimit  int
	HistoryTimeout   time.Duration
	NarrativeTimeout time.Duration
	InsightLimit     int
}

// Service is the oracle api core
type Service struct {
	d          Deps
	cfg        Config
	forecaster *Forecaster
	now        func() time.Time
	newID      func() uuid.UUID
}

// New constructs the service; missing required deps are wiring bugs
func New(d Deps, cfg Config) *Service {
	switch {
	case d.Gate == nil:
		panic("oracle.Service requires a privilege gate")
	case d.Audit == nil:
		panic("oracle.Service requires an audit recorder")
	case d.Snapshots == nil || d.History == nil || d.Graph == nil || d.Lister == nil:
		panic("oracle.Service requires matter ports")
	case d.Insights == nil:
		panic("oracle.Service requires an insights port")
	case d.Detector == nil:
		panic("oracle.Service requires a pattern detector")
	}
	if d.Narrator == nil {
		d.Narrator = narrative.NewGenerator(nil)
	}
	if cfg.InsightLimit <= 0 {
		cfg.InsightLimit = 50
	}
	return &Service{
		d:          d,
		cfg:        cfg,
		forecaster: NewForecaster(d.Snapshots, d.History, d.Detector, cfg.Forecast, cfg.ComparableLimit, cfg.HistoryTimeout),
		now:        time.Now,
		newID:      uuid.New,
	}
}

// Forecaster exposes the projection engine
func (s *Service) Forecaster() *Forecaster { return s.forecaster }

// authorize checks the gate and audits a denial
func (s *Service) authorize(ctx context.Context, actorID, matterID string, want pdomain.Level, op string) error {
	if s.d.Gate.Check(ctx, actorID, matterID, want) {
		return nil
	}
	s.d.Audit.Record(ctx, adomain.OracleAccessDenied, map[string]any{
		"operation": op,
		"level":     want.String(),
	}, adomain.Context{ActorID: actorID, MatterID: matterID})
	logger.C(ctx).Info().Str("op", op).Str("actor_id", actorID).Str("matter_id", matterID).Msg("access denied")
	return perr.AccessDeniedf("access to matter %s denied", matterID)
}

// record writes the single outcome entry for an authorized call
func (s *Service) record(ctx context.Context, t adomain.EventType, actorID, matterID, op string, payload map[string]any, err error) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["operation"] = op
	payload["outcome"] = "ok"
	if err != nil {
		payload["outcome"] = "error"
		payload["error_code"] = string(perr.CodeOf(err))
	}
	s.d.Audit.Record(ctx, t, payload, adomain.Context{ActorID: actorID, MatterID: matterID})
}

func requireActor(actorID string) error {
	if actorID == "" {
		return perr.Unauthorizedf("missing actor")
	}
	return nil
}

func narrativeConfig(c *narrative.Config) (narrative.Config, error) {
	cfg := narrative.DefaultConfig()
	if c != nil {
		cfg = c.WithDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return cfg, perr.WithField(perr.InvalidArgf("%v", err), "narrative")
	}
	return cfg, nil
}

func label(snap matter.Snapshot) string {
	switch {
	case snap.Profile.Name != "":
		return snap.Profile.Name
	case snap.Profile.Code != "":
		return snap.Profile.Code
	}
	return snap.MatterID
}

type analysis struct {
	snap     matter.Snapshot
	patterns []patterns.Pattern
	factors  risk.Factors
	score    risk.Score
}

// analyse loads a snapshot then runs the detector and scorer over it. The
// snapshot comes back stamped with the fresh score so projections start there
func (s *Service) analyse(ctx context.Context, matterID string) (analysis, error) {
	snap, err := s.d.Snapshots.Snapshot(ctx, matterID)
	if err != nil {
		return analysis{}, err
	}
	ps := s.d.Detector.Detect(snap)
	f := risk.Derive(snap, ps)
	score := risk.Compute(f)
	return analysis{snap: snap.WithRiskScore(score.Value), patterns: ps, factors: f, score: score}, nil
}

func (s *Service) narrate(ctx context.Context, in narrative.Input, cfg narrative.Config) (narrative.Narrative, error) {
	if s.cfg.NarrativeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.NarrativeTimeout)
		defer cancel()
	}
	n, err := s.d.Narrator.Generate(ctx, in, cfg)
	if err != nil {
		if errors.Is(err, narrative.ErrUpstream) {
			return narrative.Narrative{}, perr.Upstreamf(err, "narrative generation failed")
		}
		return narrative.Narrative{}, perr.InvalidArgf("%v", err)
	}
	return n, nil
}

func (s *Service) narrativeInput(ctx context.Context, a analysis, cfg narrative.Config, predictive bool) (narrative.Input, *forecast.Forecast) {
	in := narrative.Input{MatterLabel: label(a.snap), Patterns: a.patterns, Score: a.score}
	if predictive || slices.Contains(narrative.Plan(cfg), narrative.Outlook) {
		f := s.forecaster.Both(ctx, a.snap)
		in.Forecast = &f
	}
	return in, in.Forecast
}

// Diagnostic detects patterns, scores risk and narrates both for one matter
func (s *Service) Diagnostic(ctx context.Context, actorID string, in domain.DiagnosticInput) (out domain.DiagnosticOutput, err error) {
	const op = "oracle.diagnostic"
	if err = requireActor(actorID); err != nil {
		return out, err
	}
	if in.MatterID == "" && in.ClientID == "" {
		return out, perr.WithField(perr.InvalidArgf("matter_id or client_id is required"), "matter_id")
	}
	cfg, err := narrativeConfig(in.Narrative)
	if err != nil {
		return out, err
	}
	if in.MatterID == "" {
		return s.clientDiagnostic(ctx, actorID, in, cfg)
	}
	if err = s.authorize(ctx, actorID, in.MatterID, pdomain.LevelRead, op); err != nil {
		return out, err
	}
	ctx = logger.WithMatter(ctx, in.MatterID)

	payload := map[string]any{"scope": string(in.Scope)}
	defer func() { s.record(ctx, adomain.OracleQuery, actorID, in.MatterID, op, payload, err) }()

	a, err := s.analyse(ctx, in.MatterID)
	if err != nil {
		return out, err
	}
	if in.ClientID != "" && a.snap.ClientID != "" && in.ClientID != a.snap.ClientID {
		err = perr.WithField(perr.InvalidArgf("matter %s does not belong to client %s", in.MatterID, in.ClientID), "client_id")
		return out, err
	}
	payload["patternCount"] = len(a.patterns)
	payload["riskCategory"] = string(a.score.Category)
	payload["riskValue"] = a.score.Value

	nin, fc := s.narrativeInput(ctx, a, cfg, in.Scope == domain.ScopePredictive)
	n, err := s.narrate(ctx, nin, cfg)
	if err != nil {
		return out, err
	}
	payload["narrativeProvider"] = n.Provider

	return domain.DiagnosticOutput{
		MatterID:    in.MatterID,
		ClientID:    a.snap.ClientID,
		Patterns:    a.patterns,
		RiskScore:   a.score,
		Factors:     a.factors,
		Forecast:    fc,
		Narrative:   n,
		GeneratedAt: s.now().UTC(),
	}, nil
}

// clientDiagnostic analyses every matter of the client the actor can read.
// Patterns are merged, the riskiest matter supplies score, factors and any
// forecast, and the call audits once under the client
func (s *Service) clientDiagnostic(ctx context.Context, actorID string, in domain.DiagnosticInput, cfg narrative.Config) (out domain.DiagnosticOutput, err error) {
	const op = "oracle.diagnostic"
	ids, err := s.d.Lister.ByClient(ctx, in.ClientID)
	if err != nil {
		return out, perr.WithOp(perr.FromPostgres(err, "list client matters"), op)
	}
	if len(ids) == 0 {
		return out, perr.NotFoundf("client %s has no matters", in.ClientID)
	}
	readable := privilege.Readable(ctx, s.d.Gate, actorID, ids)
	if len(readable) == 0 {
		s.d.Audit.Record(ctx, adomain.OracleAccessDenied, map[string]any{
			"operation": op,
			"level":     pdomain.LevelRead.String(),
			"clientId":  in.ClientID,
		}, adomain.Context{ActorID: actorID})
		return out, perr.AccessDeniedf("access to client %s denied", in.ClientID)
	}

	payload := map[string]any{"scope": string(in.Scope), "clientId": in.ClientID, "matterCount": len(readable)}
	defer func() { s.record(ctx, adomain.OracleQuery, actorID, "", op, payload, err) }()

	var (
		top    analysis
		merged = []patterns.Pattern{}
	)
	out.Matters = make([]domain.MatterDiagnostic, 0, len(readable))
	for i, id := range readable {
		a, aerr := s.analyse(ctx, id)
		if aerr != nil {
			err = aerr
			return domain.DiagnosticOutput{}, err
		}
		if i == 0 || a.score.Value > top.score.Value {
			top = a
		}
		merged = append(merged, a.patterns...)
		out.Matters = append(out.Matters, domain.MatterDiagnostic{MatterID: id, RiskScore: a.score, Patterns: a.patterns})
	}
	patterns.Sort(merged)
	slices.SortStableFunc(out.Matters, func(a, b domain.MatterDiagnostic) int {
		return cmp.Compare(b.RiskScore.Value, a.RiskScore.Value)
	})
	payload["patternCount"] = len(merged)
	payload["riskCategory"] = string(top.score.Category)
	payload["riskValue"] = top.score.Value

	whole := analysis{snap: top.snap, patterns: merged, factors: top.factors, score: top.score}
	nin, fc := s.narrativeInput(ctx, whole, cfg, in.Scope == domain.ScopePredictive)
	nin.MatterLabel = "client " + in.ClientID
	n, err := s.narrate(ctx, nin, cfg)
	if err != nil {
		return domain.DiagnosticOutput{}, err
	}
	payload["narrativeProvider"] = n.Provider

	out.ClientID = in.ClientID
	out.Patterns = merged
	out.RiskScore = top.score
	out.Factors = top.factors
	out.Forecast = fc
	out.Narrative = n
	out.GeneratedAt = s.now().UTC()
	return out, nil
}

// ListInsights returns stored insights for a matter, or for a client filtered
// to the matters the actor can read
func (s *Service) ListInsights(ctx context.Context, actorID string, f idomain.Filters) (out domain.InsightsOutput, err error) {
	const op = "oracle.insights.list"
	if err = requireActor(actorID); err != nil {
		return out, err
	}
	if f.MatterID == "" && f.ClientID == "" {
		return out, perr.WithField(perr.InvalidArgf("matter_id or client_id is required"), "matter_id")
	}
	f.MatterIDs = nil
	if f.MatterID != "" {
		if err = s.authorize(ctx, actorID, f.MatterID, pdomain.LevelRead, op); err != nil {
			return out, err
		}
	}

	payload := map[string]any{}
	if f.ClientID != "" {
		payload["clientId"] = f.ClientID
	}
	defer func() { s.record(ctx, adomain.OracleQuery, actorID, f.MatterID, op, payload, err) }()

	if f.MatterID == "" {
		ids, lerr := s.d.Lister.ByClient(ctx, f.ClientID)
		if lerr != nil {
			err = perr.WithOp(perr.FromPostgres(lerr, "list client matters"), op)
			return out, err
		}
		f.MatterIDs = privilege.Readable(ctx, s.d.Gate, actorID, ids)
		payload["readableMatters"] = len(f.MatterIDs)
	}
	xs, err := s.d.Insights.List(ctx, f)
	if err != nil {
		return out, err
	}
	payload["count"] = len(xs)
	return domain.InsightsOutput{Insights: xs}, nil
}

// CreateInsight stores a new insight; it needs full access to the matter
func (s *Service) CreateInsight(ctx context.Context, actorID string, in idomain.CreateInput) (out idomain.Insight, err error) {
	const op = "oracle.insights.create"
	if err = requireActor(actorID); err != nil {
		return out, err
	}
	if in.MatterID == "" {
		return out, perr.WithField(perr.InvalidArgf("matter_id is required"), "matter_id")
	}
	if err = s.authorize(ctx, actorID, in.MatterID, pdomain.LevelFull, op); err != nil {
		return out, err
	}
	payload := map[string]any{"category": in.Category, "severity": in.Severity}
	defer func() { s.record(ctx, adomain.OracleInsightGenerated, actorID, in.MatterID, op, payload, err) }()

	snap, err := s.d.Snapshots.Snapshot(ctx, in.MatterID)
	if err != nil {
		return out, err
	}
	switch {
	case in.ClientID == "":
		in.ClientID = snap.ClientID
	case snap.ClientID != "" && in.ClientID != snap.ClientID:
		err = perr.WithField(perr.InvalidArgf("matter %s does not belong to client %s", in.MatterID, in.ClientID), "client_id")
		return out, err
	}
	out, err = s.d.Insights.Create(ctx, actorID, in)
	if err != nil {
		return out, err
	}
	payload["insightId"] = out.ID.String()
	return out, nil
}

// Matter360 assembles the comprehensive view of one matter. Forecasts, graph
// and insights are fetched concurrently once the snapshot is loaded
func (s *Service) Matter360(ctx context.Context, actorID, matterID string) (out domain.Matter360Output, err error) {
	const op = "oracle.matter360"
	if err = requireActor(actorID); err != nil {
		return out, err
	}
	if err = s.authorize(ctx, actorID, matterID, pdomain.LevelRead, op); err != nil {
		return out, err
	}
	ctx = logger.WithMatter(ctx, matterID)
	payload := map[string]any{}
	defer func() { s.record(ctx, adomain.OracleQuery, actorID, matterID, op, payload, err) }()

	a, err := s.analyse(ctx, matterID)
	if err != nil {
		return out, err
	}
	payload["patternCount"] = len(a.patterns)
	payload["riskCategory"] = string(a.score.Category)

	var (
		wg       sync.WaitGroup
		fc       forecast.Forecast
		graph    mdomain.Graph
		timeline []mdomain.TimelineItem
		insights []idomain.Insight
		graphErr error
		listErr  error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		fc = s.forecaster.Both(ctx, a.snap)
	}()
	go func() {
		defer wg.Done()
		graph, timeline, graphErr = s.d.Graph.Graph(ctx, a.snap)
	}()
	go func() {
		defer wg.Done()
		insights, listErr = s.d.Insights.List(ctx, idomain.Filters{MatterID: matterID, Limit: s.cfg.InsightLimit})
	}()
	wg.Wait()
	if graphErr != nil {
		err = fmt.Errorf("graph: %w", graphErr)
		return out, err
	}
	if listErr != nil {
		err = listErr
		return out, err
	}

	return domain.Matter360Output{
		Matter:      a.snap,
		Graph:       graph,
		Timeline:    timeline,
		Patterns:    a.patterns,
		Forecasts:   fc,
		RiskScore:   a.score,
		Insights:    insights,
		GeneratedAt: s.now().UTC(),
	}, nil
}

// Forecast returns the trajectory and cost projections for one matter
func (s *Service) Forecast(ctx context.Context, actorID, matterID string) (out domain.ForecastOutput, err error) {
	const op = "oracle.forecast"
	if err = requireActor(actorID); err != nil {
		return out, err
	}
	if err = s.authorize(ctx, actorID, matterID, pdomain.LevelRead, op); err != nil {
		return out, err
	}
	ctx = logger.WithMatter(ctx, matterID)
	payload := map[string]any{}
	defer func() { s.record(ctx, adomain.OracleQuery, actorID, matterID, op, payload, err) }()

	a, err := s.analyse(ctx, matterID)
	if err != nil {
		return out, err
	}
	fc := s.forecaster.Both(ctx, a.snap)
	payload["lowConfidence"] = fc.Trajectory.LowConfidence || fc.Cost.LowConfidence
	payload["comparables"] = fc.Trajectory.Comparables
	return domain.ForecastOutput{
		MatterID:    matterID,
		Trajectory:  fc.Trajectory,
		Cost:        fc.Cost,
		GeneratedAt: s.now().UTC(),
	}, nil
}

// Query accepts a free-text question. A matter-scoped query is gated on read
// access to that matter
func (s *Service) Query(ctx context.Context, actorID string, in domain.QueryInput) (out domain.Query, err error) {
	const op = "oracle.query"
	if err = requireActor(actorID); err != nil {
		return out, err
	}
	if in.Text == "" {
		return out, perr.WithField(perr.InvalidArgf("text is required"), "text")
	}
	if in.MatterID != "" {
		if err = s.authorize(ctx, actorID, in.MatterID, pdomain.LevelRead, op); err != nil {
			return out, err
		}
	}
	out = domain.Query{
		ID:        s.newID(),
		Text:      in.Text,
		Mode:      in.Mode,
		MatterID:  in.MatterID,
		ActorID:   actorID,
		CreatedAt: s.now().UTC(),
	}
	s.record(ctx, adomain.OracleQuery, actorID, in.MatterID, op, map[string]any{
		"mode":    string(in.Mode),
		"queryId": out.ID.String(),
		"length":  len(in.Text),
	}, nil)
	return out, nil
}

// Score computes a what-if score for caller supplied factors
func (s *Service) Score(ctx context.Context, actorID string, in domain.ScoreInput) (out domain.ScoreOutput, err error) {
	const op = "oracle.score"
	if err = requireActor(actorID); err != nil {
		return out, err
	}
	if in.MatterID != "" {
		if err = s.authorize(ctx, actorID, in.MatterID, pdomain.LevelRead, op); err != nil {
			return out, err
		}
	}
	f := in.Factors.Clamped()
	score := risk.Compute(f)
	s.record(ctx, adomain.OracleQuery, actorID, in.MatterID, op, map[string]any{
		"riskCategory": string(score.Category),
		"riskValue":    score.Value,
	}, nil)
	return domain.ScoreOutput{RiskScore: score, Factors: f}, nil
}

// Briefing generates a narrative and archives it; it needs full access
func (s *Service) Briefing(ctx context.Context, actorID string, in domain.BriefingInput) (out domain.BriefingOutput, err error) {
	const op = "oracle.briefing"
	if err = requireActor(actorID); err != nil {
		return out, err
	}
	if s.d.Archive == nil {
		return out, perr.Unavailablef("briefing archive is not configured")
	}
	if in.MatterID == "" {
		return out, perr.WithField(perr.InvalidArgf("matter_id is required"), "matter_id")
	}
	cfg, err := narrativeConfig(&in.Narrative)
	if err != nil {
		return out, err
	}
	if err = s.authorize(ctx, actorID, in.MatterID, pdomain.LevelFull, op); err != nil {
		return out, err
	}
	ctx = logger.WithMatter(ctx, in.MatterID)
	payload := map[string]any{"audience": string(cfg.Audience)}
	defer func() { s.record(ctx, adomain.OracleBriefingArchived, actorID, in.MatterID, op, payload, err) }()

	a, err := s.analyse(ctx, in.MatterID)
	if err != nil {
		return out, err
	}
	payload["patternCount"] = len(a.patterns)
	payload["riskCategory"] = string(a.score.Category)

	nin, _ := s.narrativeInput(ctx, a, cfg, false)
	n, err := s.narrate(ctx, nin, cfg)
	if err != nil {
		return out, err
	}
	key, err := s.d.Archive.Put(ctx, in.MatterID, []byte(n.Text), map[string]string{
		"audience":      string(cfg.Audience),
		"provider":      n.Provider,
		"risk-category": string(a.score.Category),
	})
	if err != nil {
		err = perr.Upstreamf(err, "archive briefing")
		return out, err
	}
	payload["key"] = key
	return domain.BriefingOutput{
		MatterID:    in.MatterID,
		Key:         key,
		Narrative:   n,
		RiskScore:   a.score,
		GeneratedAt: s.now().UTC(),
	}, nil
}
