package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"oracle/internal/platform/config"
	phttp "oracle/internal/platform/net/http"
	"oracle/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack
type StackOptions struct {
	Origins     []string
	MaxInflight int // 0 disables throttling
	Backlog     int
	Timeout     time.Duration
	Slow        time.Duration
}

// StackFromConfig reads CORS_ORIGINS, MAX_INFLIGHT, BACKLOG,
// REQUEST_TIMEOUT and SLOW_REQUEST from a CORE_API_ scoped config
func StackFromConfig(c config.Conf) StackOptions {
	return StackOptions{
		Origins:     c.MayCSV("CORS_ORIGINS", nil),
		MaxInflight: c.MayInt("MAX_INFLIGHT", 64),
		Backlog:     c.MayInt("BACKLOG", 128),
		Timeout:     c.MayDuration("REQUEST_TIMEOUT", 30*time.Second),
		Slow:        c.MayDuration("SLOW_REQUEST", 2*time.Second),
	}
}

// CommonStack returns the middleware every module route runs behind
// auth is added per group by Protected
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	stack := []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: o.Slow}),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.Origins}),
		middleware.Heartbeat("/health"),
	}
	if o.MaxInflight > 0 {
		stack = append(stack, middleware.ThrottleBacklog(o.MaxInflight, o.Backlog, o.Timeout))
	}
	return append(stack,
		middleware.AllowContentType("application/json"),
		middleware.Compress(flate.BestSpeed),
		middleware.RedirectSlashes(),
		middleware.StripSlashes(),
		middleware.Timeout(o.Timeout),
	)
}

// Auth wires the auth middleware to the platform JSON writer
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.Auth(p, phttp.JSON)
}
