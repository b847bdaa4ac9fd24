// Package httpkit provides tiny HTTP helpers and adapters
package httpkit

import (
	"net/http"
	"strings"

	perr "oracle/internal/platform/errors"
	pnet "oracle/internal/platform/net"
)

// TokenFunc turns a bearer token into an actor id
type TokenFunc func(token string) (actor string, err error)

// Port implements middleware.AuthPort over the Authorization header
type Port struct {
	parse TokenFunc
}

// NewPortFunc builds a Port from a token parser
func NewPortFunc(fn TokenFunc) *Port {
	return &Port{parse: fn}
}

// Parse returns the actor named by the bearer token
// every failure is unauthorized and never echoes the token
func (p *Port) Parse(r *http.Request) (string, error) {
	raw, err := Bearer(r)
	if err != nil {
		return "", err
	}
	if p == nil || p.parse == nil {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	actor, err := p.parse(raw)
	if err != nil || actor == "" {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	return actor, nil
}

// Bearer returns the raw token from a case-insensitive "Bearer" header
func Bearer(r *http.Request) (string, error) {
	s := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(s) <= len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	raw := strings.TrimSpace(s[len(prefix):])
	if raw == "" {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	return raw, nil
}

// User returns the authenticated actor from the request context
func User(r *http.Request) (string, error) {
	uid := pnet.UserID(r.Context())
	if uid == "" {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	return uid, nil
}
