package module

import (
	"time"

	"phishguard/internal/platform/config"
)

// Options holds configuration settings for the refresh module
type Options struct {
	Every      time.Duration
	Enabled    bool
	CacheEvery time.Duration // cache follow period when Enabled is false
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	rf := cfg.Prefix("CORE_REFRESH_")
	return Options{
		Every:      rf.MayDuration("EVERY", 24*time.Hour),
		Enabled:    rf.MayBool("ENABLED", true),
		CacheEvery: rf.MayDuration("CACHE_RELOAD_EVERY", 5*time.Minute),
	}
}
