package http

import (
	"net"
	"net/http"

	mw "github.com/go-chi/chi/v5/middleware"
)

// ProfilerOptions control the pprof mount
type ProfilerOptions struct {
	Enabled bool
	// Remote admits non loopback callers
	Remote bool
}

// MountProfiler mounts pprof under prefix, e.g. "/debug"
func MountProfiler(r Router, prefix string, o ProfilerOptions) {
	if !o.Enabled {
		return
	}
	h := http.StripPrefix(prefix, mw.Profiler())
	if !o.Remote {
		h = loopbackOnly(h)
	}
	r.Handle(prefix, h)
	r.Handle(prefix+"/*", h)
}

func loopbackOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
