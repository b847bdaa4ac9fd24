package middleware

import (
	"net/http"

	"oracle/internal/platform/logger"
	pnet "oracle/internal/platform/net"
)

// AuthPort resolves the acting user from a request
// identity is established upstream; this only reads it
type AuthPort interface {
	Parse(r *http.Request) (userID string, err error)
}

// Auth puts the actor on the request and logger context
// a nil port passes requests through untouched
func Auth(p AuthPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			uid, err := p.Parse(r)
			if err != nil {
				status, body := pnet.Error(err, pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			ctx := pnet.WithUser(r.Context(), uid)
			ctx = logger.WithRequest(ctx, pnet.RequestID(ctx), uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
