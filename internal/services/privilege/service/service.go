// Package service implements the privilege gate
package service

import (
	"context"
	"sync"
	"time"

	"oracle/internal/modkit/repokit"
	"oracle/internal/platform/logger"
	"oracle/internal/services/privilege/domain"
	"oracle/internal/services/privilege/repo"
)

// Config tunes the gate
type Config struct {
	// CacheTTL keeps resolved grants per process; zero disables caching
	CacheTTL time.Duration
}

type cacheKey struct{ actor, matter string }

type cached struct {
	level domain.Level
	until time.Time
}

// Gate implements domain.GatePort over the grant repo
type Gate struct {
	repo repo.Repo
	cfg  Config
	now  func() time.Time

	mu     sync.Mutex
	cache  map[cacheKey]cached
	pruned time.Time
}

// New builds a gate; a nil db or binder is a wiring bug
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], cfg Config) *Gate {
	if db == nil {
		panic("privilege.Gate requires a non nil TxRunner")
	}
	if binder == nil {
		panic("privilege.Gate requires a non nil Repo binder")
	}
	return NewWithRepo(binder.Bind(db), cfg)
}

// NewWithRepo builds a gate over an already bound repo
func NewWithRepo(r repo.Repo, cfg Config) *Gate {
	if r == nil {
		panic("privilege.Gate requires a non nil Repo")
	}
	return &Gate{repo: r, cfg: cfg, now: time.Now, cache: map[cacheKey]cached{}}
}

// Check reports whether actorID holds at least want on matterID
// any lookup failure or malformed input denies
func (g *Gate) Check(ctx context.Context, actorID, matterID string, want domain.Level) bool {
	if actorID == "" || matterID == "" || !want.Valid() {
		return false
	}
	lvl, err := g.resolve(ctx, actorID, matterID)
	if err != nil {
		logger.C(ctx).Warn().Err(err).
			Str("op", "privilege.check").
			Str("matter_id", matterID).
			Str("want", want.String()).
			Msg("grant lookup failed; denying")
		return false
	}
	return lvl.Allows(want)
}

func (g *Gate) resolve(ctx context.Context, actorID, matterID string) (domain.Level, error) {
	k := cacheKey{actorID, matterID}
	if g.cfg.CacheTTL > 0 {
		g.mu.Lock()
		c, ok := g.cache[k]
		g.mu.Unlock()
		if ok && g.now().Before(c.until) {
			return c.level, nil
		}
	}
	grant, err := g.repo.Grant(ctx, actorID, matterID)
	if err != nil {
		return domain.LevelNone, err
	}
	lvl := grant.Effective()
	if g.cfg.CacheTTL > 0 {
		now := g.now()
		g.mu.Lock()
		g.prune(now)
		g.cache[k] = cached{level: lvl, until: now.Add(g.cfg.CacheTTL)}
		g.mu.Unlock()
	}
	return lvl, nil
}

// prune drops expired entries at most once per TTL; callers hold mu
func (g *Gate) prune(now time.Time) {
	if now.Sub(g.pruned) < g.cfg.CacheTTL {
		return
	}
	for k, c := range g.cache {
		if !now.Before(c.until) {
			delete(g.cache, k)
		}
	}
	g.pruned = now
}

// Readable filters ids down to the matters actorID may read, keeping order
func Readable(ctx context.Context, g domain.GatePort, actorID string, ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if g.Check(ctx, actorID, id, domain.LevelRead) {
			out = append(out, id)
		}
	}
	return out
}
