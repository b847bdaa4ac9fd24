package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	perr "oracle/internal/platform/errors"
	pnet "oracle/internal/platform/net"
	phttp "oracle/internal/platform/net/http"
)

// helper to build a request with a request_id in context
func reqWithReqID(method, path, rid string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	return req.WithContext(pnet.WithRequest(req.Context(), rid))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) phttp.Envelope {
	t.Helper()
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v (%q)", err, rec.Body.String())
	}
	return env
}

func TestJSON_SetsContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	phttp.JSON(rec, http.StatusTeapot, map[string]any{"k": "v"})
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content-type %q", ct)
	}
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	phttp.RespondError(rec, reqWithReqID("GET", "/oracle/matters/m-9/360", "rid-3"),
		perr.NotFoundf("matter m-9"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	env := decode(t, rec)
	if env.Code != perr.ErrorCodeNotFound || env.Error == "" || env.RequestID != "rid-3" {
		t.Fatalf("bad error envelope: %+v", env)
	}
}

func TestRespondError_Field(t *testing.T) {
	rec := httptest.NewRecorder()
	phttp.RespondError(rec, reqWithReqID("POST", "/oracle/score", "rid-4"),
		perr.WithField(perr.InvalidArgf("must be between 0 and 1"), "weight"))

	env := decode(t, rec)
	if rec.Code != http.StatusUnprocessableEntity || env.Field != "weight" || env.Data != nil {
		t.Fatalf("bad envelope %d: %+v", rec.Code, env)
	}
}

func TestHandle_ErrorIgnoresStatus(t *testing.T) {
	h := phttp.Handle(func(*http.Request) phttp.Response {
		return phttp.Response{Status: http.StatusCreated, Body: perr.NotFoundf("matter")}
	})
	rec := httptest.NewRecorder()
	h(rec, reqWithReqID("POST", "/x", "rid-5"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code %d", rec.Code)
	}
}

func TestHandle_Statuses(t *testing.T) {
	cases := []struct {
		name string
		resp phttp.Response
		code int
		body bool
	}{
		{"ok", phttp.OK(map[string]any{"x": 1}), http.StatusOK, true},
		{"created", phttp.Created(map[string]any{"id": "i-1"}), http.StatusCreated, true},
		{"zero status", phttp.Response{Body: "x"}, http.StatusOK, true},
		{"no content", phttp.NoContent(), http.StatusNoContent, false},
		{"denied", phttp.Error(perr.AccessDeniedf("no access")), http.StatusForbidden, true},
		{"upstream", phttp.Error(perr.Upstreamf(errors.New("429"), "narrative")), http.StatusBadGateway, true},
		{"plain error", phttp.Error(errors.New("boom")), http.StatusInternalServerError, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := phttp.Handle(func(*http.Request) phttp.Response { return tc.resp })
			rec := httptest.NewRecorder()
			h(rec, reqWithReqID("GET", "/x", "rid-"+tc.name))
			if rec.Code != tc.code {
				t.Fatalf("code %d want %d", rec.Code, tc.code)
			}
			if !tc.body {
				if rec.Body.Len() != 0 {
					t.Fatalf("unexpected body %q", rec.Body.String())
				}
				return
			}
			env := decode(t, rec)
			if env.StatusCode != tc.code || env.RequestID != "rid-"+tc.name {
				t.Fatalf("bad envelope: %+v", env)
			}
		})
	}
}

func TestHandle_HeaderOverride(t *testing.T) {
	h := phttp.Handle(func(*http.Request) phttp.Response {
		resp := phttp.Created("i-1")
		resp.Header = http.Header{}
		resp.Header.Set("Location", "/api/v1/oracle/insights/i-1")
		return resp
	})
	rec := httptest.NewRecorder()
	h(rec, reqWithReqID("POST", "/oracle/insights", "rid-8"))
	if got := rec.Header().Get("Location"); got != "/api/v1/oracle/insights/i-1" {
		t.Fatalf("expected location header, got %q", got)
	}
}
