package http

import (
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func tag(name string) func(stdhttp.Handler) stdhttp.Handler {
	return func(next stdhttp.Handler) stdhttp.Handler {
		return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			w.Header().Add("X-Layer", name)
			next.ServeHTTP(w, r)
		})
	}
}

func text(s string) Handler {
	return func(w stdhttp.ResponseWriter, _ *stdhttp.Request) { _, _ = w.Write([]byte(s)) }
}

func TestAdaptChi(t *testing.T) {
	t.Parallel()

	r := AdaptChi(chi.NewRouter())
	r.Use(tag("root"))
	r.Handle("/health", stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusOK)
	}))
	r.Route("/oracle", func(o Router) {
		o.Use(tag("oracle"))
		o.Get("/insights", text("list"))
		o.Group(func(g Router) {
			g.Use(tag("auth"))
			g.Post("/insights", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) { w.WriteHeader(stdhttp.StatusCreated) })
			g.Route("/matters/{matterID}", func(m Router) {
				m.Get("/360", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
					_, _ = w.Write([]byte(chi.URLParam(r, "matterID")))
				})
			})
		})
	})

	cases := []struct {
		method, path string
		code         int
		body         string
		layers       []string
	}{
		{"GET", "/health", 200, "", []string{"root"}},
		{"GET", "/oracle/insights", 200, "list", []string{"root", "oracle"}},
		{"POST", "/oracle/insights", 201, "", []string{"root", "oracle", "auth"}},
		{"GET", "/oracle/matters/m-1001/360", 200, "m-1001", []string{"root", "oracle", "auth"}},
		{"DELETE", "/oracle/insights", 405, "", []string{"root", "oracle"}},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		r.Mux().ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
		if rr.Code != tc.code {
			t.Fatalf("%s %s: code %d want %d", tc.method, tc.path, rr.Code, tc.code)
		}
		if tc.body != "" && rr.Body.String() != tc.body {
			t.Fatalf("%s %s: body %q want %q", tc.method, tc.path, rr.Body.String(), tc.body)
		}
		got := rr.Header().Values("X-Layer")
		if len(got) != len(tc.layers) {
			t.Fatalf("%s %s: layers %v want %v", tc.method, tc.path, got, tc.layers)
		}
		for i := range got {
			if got[i] != tc.layers[i] {
				t.Fatalf("%s %s: layers %v want %v", tc.method, tc.path, got, tc.layers)
			}
		}
	}
}
