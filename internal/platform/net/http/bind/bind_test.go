package bind

import (
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "oracle/internal/platform/errors"
	kit "oracle/internal/platform/testkit"
)

type diagnosticReq struct {
	MatterID string  `json:"matter_id" validate:"required,ident,max=20"`
	Weight   float64 `json:"weight" validate:"unit"`
}

func post(body string) *http.Request {
	return httptest.NewRequest("POST", "/oracle/diagnostic", strings.NewReader(body))
}

func TestParseJSON_Success(t *testing.T) {
	got, err := ParseJSON[diagnosticReq](post(`{"matter_id":"m-1001","weight":0.4}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.MatterID != "m-1001" || got.Weight != 0.4 {
		t.Fatalf("got %+v", got)
	}
}

func TestParseJSON_Rejects(t *testing.T) {
	cases := []struct {
		name string
		req  *http.Request
		opts []JSONOptions
		code perr.ErrorCode
	}{
		{"empty post", httptest.NewRequest("POST", "/", http.NoBody), nil, perr.ErrorCodeJSON},
		{"bad json", post(`{`), nil, perr.ErrorCodeJSON},
		{"unknown field", post(`{"matter_id":"m-1","weight":0,"extra":1}`), nil, perr.ErrorCodeJSON},
		{"too large", post(`{"matter_id":"m-1","weight":0}`), []JSONOptions{{MaxBytes: 5, DisallowUnknown: true}}, perr.ErrorCodeJSON},
		{"non struct", post(`5`), nil, perr.ErrorCodeJSON},
		{"missing id", post(`{"weight":0.2}`), nil, perr.ErrorCodeValidation},
		{"bad id", post(`{"matter_id":"m 1; drop","weight":0.2}`), nil, perr.ErrorCodeValidation},
		{"weight above one", post(`{"matter_id":"m-1","weight":1.2}`), nil, perr.ErrorCodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			if tc.name == "non struct" {
				_, err = ParseJSON[int](tc.req, tc.opts...)
			} else {
				_, err = ParseJSON[diagnosticReq](tc.req, tc.opts...)
			}
			if perr.CodeOf(err) != tc.code {
				t.Fatalf("code %v want %v (%v)", perr.CodeOf(err), tc.code, err)
			}
		})
	}
}

func TestParseJSON_EmptyBodyOnGetIsZero(t *testing.T) {
	got, err := ParseJSON[diagnosticReq](httptest.NewRequest("GET", "/", http.NoBody))
	if err != nil || got != (diagnosticReq{}) {
		t.Fatalf("got %+v %v", got, err)
	}
}

func TestParseJSON_AllowEmptyBody(t *testing.T) {
	type note struct {
		Note string `json:"note"`
	}
	got, err := ParseJSON[note](httptest.NewRequest("POST", "/", http.NoBody), JSONOptions{AllowEmptyBody: true, MaxBytes: 8})
	if err != nil || got != (note{}) {
		t.Fatalf("got %+v %v", got, err)
	}
}

func TestParseJSON_AllowUnknown(t *testing.T) {
	got, err := ParseJSON[diagnosticReq](post(`{"matter_id":"m-1","weight":0,"extra":"ok"}`), JSONOptions{})
	if err != nil || got.MatterID != "m-1" {
		t.Fatalf("got %+v %v", got, err)
	}
}

func TestParseJSON_Framing(t *testing.T) {
	cases := []struct {
		name string
		body string
		opt  JSONOptions
		msg  string
	}{
		{"second value", `{"matter_id":"m-1","weight":0} {}`, DefaultJSON, "unexpected trailing data"},
		{"trailing garbage", `{"matter_id":"m-1","weight":0} x`, DefaultJSON, "unexpected trailing data"},
		{"over cap", `{"matter_id":"m-1","weight":0}`, JSONOptions{MaxBytes: 10}, "body exceeds 10 bytes"},
		{"whitespace only", "  \n ", DefaultJSON, "empty body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseJSON[diagnosticReq](post(tc.body), tc.opt)
			if perr.CodeOf(err) != perr.ErrorCodeJSON {
				t.Fatalf("err %v", err)
			}
			kit.MustContain(t, err.Error(), tc.msg)
		})
	}

	body := `{"matter_id":"m-1","weight":0.5}` + "\n"
	got, err := ParseJSON[diagnosticReq](post(body), JSONOptions{MaxBytes: int64(len(body))})
	if err != nil || got.Weight != 0.5 {
		t.Fatalf("exact cap: %+v %v", got, err)
	}
}

func TestStruct_FieldAndMessage(t *testing.T) {
	cases := []struct {
		in    diagnosticReq
		field string
		msg   string
	}{
		{diagnosticReq{MatterID: "m/1"}, "matter_id", "matter_id must be an identifier"},
		{diagnosticReq{MatterID: "m-000000000000000000001"}, "matter_id", "matter_id must be at most 20"},
		{diagnosticReq{MatterID: "m-1", Weight: -0.1}, "weight", "weight must be between 0 and 1"},
		{diagnosticReq{MatterID: "m-1", Weight: math.NaN()}, "weight", "weight must be between 0 and 1"},
	}
	for _, tc := range cases {
		err := Struct(tc.in)
		e, ok := perr.As(err)
		if !ok || e.Code() != perr.ErrorCodeValidation {
			t.Fatalf("%+v: err %v", tc.in, err)
		}
		if e.Field() != tc.field {
			t.Fatalf("%+v: field %q want %q", tc.in, e.Field(), tc.field)
		}
		kit.MustContain(t, err.Error(), tc.msg)
	}
	if err := Struct(diagnosticReq{MatterID: "CL-2024.17:a_b", Weight: 1}); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
}

func TestTagNameFallsBackToFieldName(t *testing.T) {
	type s struct {
		Secret int `json:"-" validate:"min=1"`
		Plain  int `validate:"min=1"`
	}
	field, msg := Get().Message(Get().Struct(s{Plain: 1}))
	if field != "Secret" || msg != "Secret must be at least 1" {
		t.Fatalf("field %q msg %q", field, msg)
	}
	field, _ = Get().Message(Get().Struct(s{Secret: 1}))
	if field != "Plain" {
		t.Fatalf("field %q", field)
	}
}

func TestMessage_Passthrough(t *testing.T) {
	for in, want := range map[error]string{nil: "", errors.New("boom"): "boom"} {
		field, msg := Get().Message(in)
		if field != "" || msg != want {
			t.Fatalf("Message(%v) = %q %q", in, field, msg)
		}
	}
}
