// Package config reads typed settings from the environment. Invalid
// optional values fall back to their default with a warning; invalid
// required values panic at boot
package config

import (
	"strconv"
	"strings"
	"time"

	"oracle/internal/platform/config/raw"
	"oracle/internal/platform/logger"
)

// Conf is a prefixed view, e.g. New().Prefix("CORE_API_")
type Conf struct{ r raw.Conf }

// New reads the process environment
func New() Conf { return Conf{r: raw.New()} }

// FromMap reads from m instead of the environment
func FromMap(m map[string]string) Conf { return Conf{r: raw.Map(m)} }

// Prefix narrows the view
func (c Conf) Prefix(p string) Conf { return Conf{r: c.r.Prefix(p)} }

func (c Conf) key(k string) string { return c.r.Key(k) }

func (c Conf) get(k string) string { return c.r.Get(k, "") }

func (c Conf) invalid(k, v string) {
	logger.Get().Warn().Str("key", c.key(k)).Str("value", v).Msg("invalid config value; using default")
}

// MustString panics when key is unset or blank
func (c Conf) MustString(key string) string {
	v := c.get(key)
	if v == "" {
		logger.Get().Panic().Str("key", c.key(key)).Msg("missing required env")
	}
	return v
}

// MayString returns the trimmed value or def
func (c Conf) MayString(key, def string) string {
	if v := c.get(key); v != "" {
		return v
	}
	return def
}

// MayInt returns the value or def when unset or not an int
func (c Conf) MayInt(key string, def int) int {
	return parse(c, key, def, strconv.Atoi)
}

// MayFloat64 returns the value or def when unset or not a float
func (c Conf) MayFloat64(key string, def float64) float64 {
	return parse(c, key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// MayUnit is MayFloat64 clamped to [0,1]
func (c Conf) MayUnit(key string, def float64) float64 {
	v := c.MayFloat64(key, def)
	if v < 0 || v > 1 {
		clamped := min(max(v, 0), 1)
		logger.Get().Warn().Str("key", c.key(key)).Float64("value", v).Float64("clamped", clamped).Msg("value outside [0,1]; clamping")
		return clamped
	}
	return v
}

// MayBool accepts anything strconv.ParseBool does
func (c Conf) MayBool(key string, def bool) bool {
	return parse(c, key, def, strconv.ParseBool)
}

// MayDuration accepts Go duration syntax, e.g. "1500ms"
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return parse(c, key, def, time.ParseDuration)
}

// MayCSV splits on commas, dropping blanks; def when nothing remains
func (c Conf) MayCSV(key string, def []string) []string {
	var out []string
	for _, p := range strings.Split(c.get(key), ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEnum returns the value when it case-insensitively matches one of
// allowed, def when unset, and panics otherwise
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	if v == "" {
		return v
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return v
		}
	}
	logger.Get().Panic().Str("key", c.key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}

func parse[T any](c Conf, key string, def T, fn func(string) (T, error)) T {
	s := c.get(key)
	if s == "" {
		return def
	}
	v, err := fn(s)
	if err != nil {
		c.invalid(key, s)
		return def
	}
	return v
}
