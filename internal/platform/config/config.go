// Package config reads service settings from prefix-scoped environment variables.
// Must* helpers panic through the logger on bad input, May* helpers warn and fall back
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"phishguard/internal/platform/logger"
)

// Conf is a namespaced view over the environment, e.g. New().Prefix("CORE_DETECT_")
type Conf struct{ prefix string }

// New returns the unprefixed view
func New() Conf { return Conf{} }

// Prefix returns a child view with p appended to the current prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

func (c Conf) value(k string) string { return strings.TrimSpace(os.Getenv(c.key(k))) }

// MustString panics when key is unset or blank
func (c Conf) MustString(key string) string {
	v := c.value(key)
	if v == "" {
		logger.Get().Panic().Str("key", c.key(key)).Msg("missing required env")
	}
	return v
}

// MustInt panics when key is unset or not an integer
func (c Conf) MustInt(key string) int {
	s := c.MustString(key)
	v, err := strconv.Atoi(s)
	if err != nil {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", s).Msg("invalid int value")
	}
	return v
}

// MustURL panics when key is unset or not an absolute URL
func (c Conf) MustURL(key string) *url.URL {
	s := c.MustString(key)
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", s).Msg("invalid absolute URL")
	}
	return u
}

// MayString returns the value or def when unset or blank
func (c Conf) MayString(key, def string) string {
	if v := c.value(key); v != "" {
		return v
	}
	return def
}

// MayInt returns the value or def; an unparsable value warns and yields def
func (c Conf) MayInt(key string, def int) int {
	s := c.value(key)
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Int("default", def).Msg("invalid int; using default")
	return def
}

// MayFloat64 returns the value or def; an unparsable value warns and yields def
func (c Conf) MayFloat64(key string, def float64) float64 {
	s := c.value(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Float64("default", def).
		Msg("invalid float64; using default")
	return def
}

// MayBool returns the value or def; an unparsable value warns and yields def
func (c Conf) MayBool(key string, def bool) bool {
	s := c.value(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Bool("default", def).Msg("invalid bool; using default")
	return def
}

// MayDuration parses Go durations like 250ms or 24h
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	s := c.value(key)
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Dur("default", def).Msg("invalid duration; using default")
	return def
}

// MayCSV splits a comma separated value, dropping blanks
func (c Conf) MayCSV(key string, def []string) []string {
	s := c.value(key)
	if s == "" {
		return def
	}
	out := make([]string, 0, strings.Count(s, ",")+1)
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayURL returns an absolute URL or def; a relative or broken value panics
func (c Conf) MayURL(key, def string) *url.URL {
	s := c.MayString(key, def)
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", s).Msg("invalid absolute URL")
	}
	return u
}

// MayPort returns a listen address like ":4000", accepting "4000" or ":4000"
func (c Conf) MayPort(key, def string) string {
	s := strings.TrimPrefix(c.MayString(key, def), ":")
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", s).Msg("invalid TCP port; expected 1..65535")
	}
	return ":" + s
}

// MayEnum returns the value when it is one of allowed, def when unset; anything else panics
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return strings.ToLower(a)
		}
	}
	logger.Get().Panic().Str("key", c.key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}
