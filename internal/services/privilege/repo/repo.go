// Package repo reads privilege grants from Postgres
package repo

import (
	"context"
	"fmt"

	"oracle/internal/modkit/repokit"
	"oracle/internal/services/privilege/domain"
)

// Repo loads the grant rows for one actor and matter
type Repo interface {
	Grant(ctx context.Context, actorID, matterID string) (domain.Grant, error)
}

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG returns a binder for the Postgres repo
func NewPG() repokit.Binder[Repo] { return binder{} }

func (binder) Bind(q repokit.Queryer) Repo { return &pg{q: q} }

const grantSQL = `
SELECT
	COALESCE((SELECT access_level FROM matter_team WHERE matter_id = $2 AND user_id = $1), ''),
	COALESCE((SELECT access_level FROM privilege_grants WHERE user_id = $1), '')`

// Grant reads both sources in one round trip; unknown stored levels are errors
func (r *pg) Grant(ctx context.Context, actorID, matterID string) (domain.Grant, error) {
	var team, org string
	if err := r.q.QueryRow(ctx, grantSQL, actorID, matterID).Scan(&team, &org); err != nil {
		return domain.Grant{}, fmt.Errorf("privilege grant: %w", err)
	}
	tl, err := domain.ParseLevel(team)
	if err != nil {
		return domain.Grant{}, err
	}
	ol, err := domain.ParseLevel(org)
	if err != nil {
		return domain.Grant{}, err
	}
	return domain.Grant{Team: tl, Org: ol}, nil
}
