package middleware_test

import (
	"compress/flate"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"oracle/internal/platform/net/middleware"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func TestRequestIDRealIPNoCache(t *testing.T) {
	var rid, addr string
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid = chimw.GetReqID(r.Context())
		addr = r.RemoteAddr
	}), middleware.RealIP(), middleware.RequestID(), middleware.NoCache())

	req := httptest.NewRequest(http.MethodGet, "/oracle/insights", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	req.Header.Set("X-Request-ID", "rid-42")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rid != "rid-42" {
		t.Fatalf("request id %q", rid)
	}
	if addr != "203.0.113.9" {
		t.Fatalf("remote addr %q", addr)
	}
	if rr.Header().Get("Cache-Control") == "" {
		t.Fatal("expected Cache-Control from NoCache")
	}
}

func TestCompress_Gzip(t *testing.T) {
	h := middleware.Compress(flate.BestSpeed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"narrative":"`+strings.Repeat("a", 4<<10)+`"}`)
	}))
	req := httptest.NewRequest(http.MethodGet, "/oracle/matters/m-1/360", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("content-encoding %q", rr.Header().Get("Content-Encoding"))
	}
}

func TestAllowContentType(t *testing.T) {
	h := middleware.AllowContentType("application/json")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	cases := []struct {
		ct   string
		code int
	}{
		{"application/json", http.StatusCreated},
		{"application/json; charset=utf-8", http.StatusCreated},
		{"text/plain", http.StatusUnsupportedMediaType},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/oracle/insights", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", tc.ct)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != tc.code {
			t.Fatalf("%s: code %d want %d", tc.ct, rr.Code, tc.code)
		}
	}
}

func TestThrottleBacklog_RejectsOverflow(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	h := middleware.ThrottleBacklog(1, 0, 10*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/oracle/briefings", nil))
	}()
	<-entered

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/oracle/briefings", nil))
	close(release)
	<-done

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("code %d want 429", rr.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := middleware.CORS(middleware.CORSOptions{AllowedOrigins: []string{"https://portal.example.com"}})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/oracle/insights", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Header().Get("Access-Control-Allow-Origin") != "https://portal.example.com" {
		t.Fatalf("allow-origin %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}
	if rr.Header().Get("Access-Control-Allow-Methods") == "" || rr.Header().Get("Access-Control-Allow-Headers") == "" {
		t.Fatalf("preflight headers %v", rr.Header())
	}
}
