package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "oracle/internal/platform/errors"
)

type scoreIn struct {
	Weight float64 `json:"weight" validate:"unit"`
}

func TestJSONHandler(t *testing.T) {
	t.Parallel()

	h := JSONHandler[scoreIn](func(_ *http.Request, in scoreIn) (any, error) {
		switch {
		case in.Weight == 0.9:
			return nil, perr.Upstreamf(errors.New("quota"), "narrative failed")
		case in.Weight == 0.8:
			return nil, errors.New("boom")
		case in.Weight == 0.5:
			return Created(map[string]float64{"stored": in.Weight}), nil
		}
		return map[string]float64{"doubled": in.Weight * 2}, nil
	})

	cases := []struct {
		name string
		body string
		code int
		want string
	}{
		{"ok", `{"weight":0.25}`, http.StatusOK, `"doubled":0.5`},
		{"created passthrough", `{"weight":0.5}`, http.StatusCreated, `"stored":0.5`},
		{"bad json", `{`, http.StatusBadRequest, `"code":"json"`},
		{"validation", `{"weight":3}`, http.StatusBadRequest, `"field":"weight"`},
		{"upstream", `{"weight":0.9}`, http.StatusBadGateway, `"error":"narrative failed"`},
		{"foreign error", `{"weight":0.8}`, http.StatusInternalServerError, "boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/oracle/score", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			h(rr, req)
			if rr.Code != tc.code || !strings.Contains(rr.Body.String(), tc.want) {
				t.Fatalf("got %d %q, want %d containing %q", rr.Code, rr.Body.String(), tc.code, tc.want)
			}
		})
	}
}

func TestJSONHandlerNoBody(t *testing.T) {
	t.Parallel()

	h := JSONHandlerNoBody(func(r *http.Request) (any, error) {
		if r.URL.Query().Get("limit") == "0" {
			return nil, perr.InvalidArgf("limit must be positive")
		}
		return []string{"i-1"}, nil
	})

	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/oracle/insights", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"data":["i-1"]`) {
		t.Fatalf("got %d %q", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/oracle/insights?limit=0", nil))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got %d", rr.Code)
	}
}
