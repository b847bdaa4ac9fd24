package net_test

import (
	"errors"
	"net/http"
	"testing"

	perr "oracle/internal/platform/errors"
	pnet "oracle/internal/platform/net"
)

func TestError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   perr.ErrorCode
		field  string
	}{
		{"nil", nil, http.StatusOK, "", ""},
		{"unauthorized", perr.Unauthorizedf("missing bearer token"), http.StatusUnauthorized, perr.ErrorCodeUnauthorized, ""},
		{"field", perr.WithField(perr.InvalidArgf("bad token"), "authorization"), http.StatusUnprocessableEntity, perr.ErrorCodeInvalidArgument, "authorization"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, perr.ErrorCodeUnknown, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, w := pnet.Error(tc.err, "req-9")
			if status != tc.status || w.StatusCode != tc.status || w.Status != http.StatusText(tc.status) {
				t.Fatalf("status %d wire %+v", status, w)
			}
			if w.Code != tc.code || w.Field != tc.field || w.RequestID != "req-9" {
				t.Fatalf("wire %+v", w)
			}
			if tc.err != nil && w.Error == "" {
				t.Fatal("missing message")
			}
		})
	}
}
