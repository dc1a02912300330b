// Package version reports build metadata stamped in with -ldflags
package version

import "runtime"

// BuildInfo is served by /meta/version
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

// Info returns the stamped values.
//
//	-ldflags "-X 'phishguard/internal/core/version.version=v0.3.0'
//	          -X 'phishguard/internal/core/version.commit=abcd'
//	          -X 'phishguard/internal/core/version.date=2026-01-02'"
func Info() BuildInfo {
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
		Go:      runtime.Version(),
	}
}

var (
	service = "phishguard-api"
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
