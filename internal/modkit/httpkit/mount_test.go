package httpkit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "oracle/internal/platform/errors"
	phttp "oracle/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

// tokenPort accepts "Bearer <actor>" and rejects everything else
type tokenPort struct{}

func (tokenPort) Parse(r *http.Request) (string, error) { return Bearer(r) }

type scoreReq struct {
	MatterID string `json:"matter_id" validate:"required,ident"`
}

func newAPI(t *testing.T) http.Handler {
	t.Helper()
	m := chi.NewRouter()
	MountAPIV1(phttp.AdaptChi(m), nil, func(api Router) {
		api.Route("/oracle", func(rr Router) {
			Get(rr, "/open", func(*http.Request) (any, error) { return "open", nil })
			Protected(rr, tokenPort{}, func(pr Router) {
				Get(pr, "/whoami", func(r *http.Request) (any, error) {
					actor, err := User(r)
					return map[string]string{"actor": actor}, err
				})
				PostJSON[scoreReq](pr, "/score", func(_ *http.Request, in scoreReq) (any, error) {
					if in.MatterID == "m-gone" {
						return nil, perr.NotFoundf("matter %s", in.MatterID)
					}
					return Created(in.MatterID), nil
				})
			})
		})
	})
	return m
}

func serve(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMountedAPI(t *testing.T) {
	h := newAPI(t)
	cases := []struct {
		name, method, path, token, body string
		code                            int
		want                            string
	}{
		{"open route", "GET", "/api/v1/oracle/open", "", "", http.StatusOK, "open"},
		{"missing token", "GET", "/api/v1/oracle/whoami", "", "", http.StatusUnauthorized, "missing bearer token"},
		{"actor on ctx", "GET", "/api/v1/oracle/whoami", "alice", "", http.StatusOK, `"actor":"alice"`},
		{"created", "POST", "/api/v1/oracle/score", "alice", `{"matter_id":"m-1"}`, http.StatusCreated, "m-1"},
		{"invalid body", "POST", "/api/v1/oracle/score", "alice", `{"matter_id":"m 1"}`, http.StatusBadRequest, "identifier"},
		{"not found", "POST", "/api/v1/oracle/score", "alice", `{"matter_id":"m-gone"}`, http.StatusNotFound, "m-gone"},
		{"unversioned", "GET", "/oracle/open", "", "", http.StatusNotFound, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(h, tc.method, tc.path, tc.token, tc.body)
			if rec.Code != tc.code {
				t.Fatalf("code %d want %d (%s)", rec.Code, tc.code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tc.want) {
				t.Fatalf("body %q missing %q", rec.Body.String(), tc.want)
			}
		})
	}
}

func TestMountAPI_AppliesMiddlewareAndTrimsVersion(t *testing.T) {
	m := chi.NewRouter()
	tag := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Scope", "v2")
			next.ServeHTTP(w, r)
		})
	}
	MountAPI(phttp.AdaptChi(m), "/v2", []func(http.Handler) http.Handler{tag}, func(api Router) {
		Get(api, "/ping", func(*http.Request) (any, error) { return "pong", nil })
	})
	rec := serve(m, "GET", "/api/v2/ping", "", "")
	if rec.Code != http.StatusOK || rec.Header().Get("X-Scope") != "v2" {
		t.Fatalf("code %d headers %v", rec.Code, rec.Header())
	}
}
