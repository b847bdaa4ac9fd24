package modkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func stamp(tag string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Mw", tag)
			next.ServeHTTP(w, r)
		})
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	type auditPorts struct{ Sink string }
	defaults := []Option{WithName("meta"), WithPrefix("/meta"), WithMiddlewares(stamp("a"))}
	b := Build(append(defaults, WithPrefix("/status"), WithMiddlewares(stamp("b")), WithPorts(auditPorts{Sink: "clickhouse"}))...)

	if b.Name != "meta" || b.Prefix != "/status" {
		t.Fatalf("name %q prefix %q", b.Name, b.Prefix)
	}
	if p, ok := b.Ports.(auditPorts); !ok || p.Sink != "clickhouse" {
		t.Fatalf("ports %#v", b.Ports)
	}

	var h http.Handler = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	for i := len(b.Mw) - 1; i >= 0; i-- {
		h = b.Mw[i](h)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/meta/ready", nil))
	if got := rr.Header().Values("X-Mw"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("middleware order %v", got)
	}
}

func TestBuild_Zero(t *testing.T) {
	t.Parallel()

	b := Build()
	if b.Name != "" || b.Prefix != "" || b.Ports != nil || b.Mw != nil {
		t.Fatalf("zero build %+v", b)
	}
}
