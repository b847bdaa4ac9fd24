package net_test

import (
	"errors"
	"net/http"
	"testing"

	perr "oracle/internal/platform/errors"
	pnet "oracle/internal/platform/net"
)

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		err  error
		want int
	}{
		"nil":          {nil, http.StatusOK},
		"foreign":      {errors.New("boom"), http.StatusInternalServerError},
		"unauthorized": {perr.New(perr.ErrorCodeUnauthorized, "no token"), http.StatusUnauthorized},
		"upstream":     {perr.Upstreamf(errors.New("eof"), "narrative failed"), http.StatusBadGateway},
		"wrapped":      {perr.Wrap(perr.ErrNotFound, perr.ErrorCodeNotFound, "matter"), http.StatusNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := pnet.HTTPStatus(tc.err); got != tc.want {
				t.Fatalf("status = %d, want %d", got, tc.want)
			}
		})
	}
}
