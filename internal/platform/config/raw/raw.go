// Package raw reads bootstrap settings before the logger exists,
// so it must never import the logger
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf is a prefixed view over a key lookup, the process env by default
type Conf struct {
	prefix string
	lookup func(string) (string, bool)
}

// New reads the process environment
func New() Conf { return Conf{lookup: os.LookupEnv} }

// Map reads from m instead of the environment
func Map(m map[string]string) Conf {
	return Conf{lookup: func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}}
}

// Prefix narrows the view, e.g. New().Prefix("LOG_")
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p, lookup: c.lookup} }

// Key returns the fully qualified name of k
func (c Conf) Key(k string) string { return c.prefix + k }

func (c Conf) value(k string) string {
	if c.lookup == nil {
		return ""
	}
	v, _ := c.lookup(c.Key(k))
	return strings.TrimSpace(v)
}

// Get returns the trimmed value or def when unset or blank
func (c Conf) Get(key, def string) string {
	if v := c.value(key); v != "" {
		return v
	}
	return def
}

// GetBool accepts 1/true/yes/on and 0/false/no/off; anything else is def
func (c Conf) GetBool(key string, def bool) bool {
	switch strings.ToLower(c.value(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

// GetInt returns a non negative integer or def
func (c Conf) GetInt(key string, def int) int {
	n, err := strconv.Atoi(c.value(key))
	if err != nil || n < 0 {
		return def
	}
	return n
}
