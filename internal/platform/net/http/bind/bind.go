// Package bind provides JSON bind and validation helpers for handlers
package bind

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	perr "oracle/internal/platform/errors"
	"oracle/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validator is the shared validate instance; messages are english and
// name fields by their json tags
type Validator struct {
	*validator.Validate
	trans ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *Validator

	// matter, client and user ids as issued by the practice system
	identRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)
)

// Get returns the process validator, building it on first use
func Get() *Validator {
	vOnce.Do(func() { vSvc = newValidator() })
	return vSvc
}

func newValidator() *Validator {
	loc := en.New()
	trans, _ := ut.New(loc, loc).GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	for _, t := range []struct {
		tag, text string
		fn        validator.Func
	}{
		{"min", "{0} must be at least {1}", nil},
		{"max", "{0} must be at most {1}", nil},
		{"ident", "{0} must be an identifier (letters, digits, . _ : -)", validIdent},
		{"unit", "{0} must be between 0 and 1", validUnit},
	} {
		register(v, trans, t.tag, t.text, t.fn)
	}
	return &Validator{Validate: v, trans: trans}
}

// jsonName reports a field by its json key, or its Go name when untagged
func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// Message returns the first failing field and its translated message
func (v *Validator) Message(err error) (field, msg string) {
	var verrs validator.ValidationErrors
	switch {
	case err == nil:
		return "", ""
	case errors.As(err, &verrs) && len(verrs) > 0:
		return verrs[0].Field(), verrs[0].Translate(v.trans)
	}
	return "", err.Error()
}

// Struct validates v and maps the first failure to a Validation error
// carrying the json field name
func Struct(v any) error {
	err := Get().Validate.Struct(v)
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		logger.Get().Error().Err(inv).Msg("validator internal error")
		return perr.JSONErrf("validation error")
	}
	field, msg := Get().Message(err)
	return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s", msg), field)
}

// JSONOptions controls ParseJSON; the zero value allows unknown fields
// and has no size cap
type JSONOptions struct {
	MaxBytes        int64
	DisallowUnknown bool
	AllowEmptyBody  bool
}

// DefaultJSON is used when ParseJSON gets no options
var DefaultJSON = JSONOptions{MaxBytes: 1 << 20, DisallowUnknown: true}

var errTooLarge = errors.New("body too large")

// capped fails with errTooLarge instead of truncating at n bytes
type capped struct {
	r io.Reader
	n int64
}

func (c *capped) Read(p []byte) (int, error) {
	if c.n < 0 {
		return 0, errTooLarge
	}
	if int64(len(p)) > c.n+1 {
		p = p[:c.n+1]
	}
	k, err := c.r.Read(p)
	c.n -= int64(k)
	if c.n < 0 {
		return k, errTooLarge
	}
	return k, err
}

// ParseJSON decodes exactly one JSON value into T and validates it.
// An empty body is the zero T for GET and DELETE or with AllowEmptyBody
func ParseJSON[T any](r *http.Request, opts ...JSONOptions) (T, error) {
	var zero T
	o := DefaultJSON
	if len(opts) > 0 {
		o = opts[0]
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			logger.C(r.Context()).Warn().Err(err).Msg("close request body")
		}
	}()

	var reader io.Reader = r.Body
	if o.MaxBytes > 0 {
		reader = &capped{r: reader, n: o.MaxBytes}
	}
	dec := json.NewDecoder(reader)
	if o.DisallowUnknown {
		dec.DisallowUnknownFields()
	}

	var dst T
	switch err := dec.Decode(&dst); {
	case errors.Is(err, io.EOF):
		if o.AllowEmptyBody || r.Method == http.MethodGet || r.Method == http.MethodDelete {
			return zero, nil
		}
		return zero, perr.JSONErrf("empty body")
	case errors.Is(err, errTooLarge):
		return zero, perr.JSONErrf("body exceeds %d bytes", o.MaxBytes)
	case err != nil:
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return zero, perr.JSONErrf("unexpected trailing data")
	}
	if err := Struct(dst); err != nil {
		return zero, err
	}
	return dst, nil
}

func validIdent(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	return ok && identRe.MatchString(s)
}

func validUnit(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		f := fl.Field().Float()
		return !math.IsNaN(f) && f >= 0 && f <= 1
	}
	return false
}

// register adds a translation for tag and, when fn is set, the tag itself
func register(v *validator.Validate, trans ut.Translator, tag, text string, fn validator.Func) {
	if fn != nil {
		_ = v.RegisterValidation(tag, fn)
	}
	_ = v.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}
