// Package time contains time parsing helpers for request payloads
package time

import (
	"strings"
	"time"

	perr "phishguard/internal/platform/errors"
)

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseOptional parses s with the accepted layouts; blank input yields nil.
// Values without a zone are read as UTC
func ParseOptional(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, l := range layouts {
		if t, err := time.ParseInLocation(l, s, time.UTC); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, perr.WithField(perr.InvalidArgf("%s: unrecognized time %q", field, s), field)
}
