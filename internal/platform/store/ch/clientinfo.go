package ch

import (
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"oracle/internal/core/version"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo tags every ClickHouse session with the process role
// (api, sweep, ctl) so system.query_log can tell the callers apart.
// An empty tag falls back to the linked build version.
func BuildClientInfo(role, tag string) clickhouse.ClientInfo {
	build := version.Info()
	host, _ := os.Hostname()

	info := clickhouse.ClientInfo{}
	add := func(name string, vals ...string) {
		v := "unknown"
		for _, s := range vals {
			if s = strings.TrimSpace(s); s != "" {
				v = s
				break
			}
		}
		info.Products = append(info.Products, struct{ Name, Version string }{name, v})
	}

	add("oracle", tag, build.Version)
	add("role", role)
	add("go", runtime.Version())
	add("commit", revision(), build.Commit)
	add("host", host)
	return info
}

// revision is the short vcs hash stamped by the go tool, if any
func revision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return ""
}
