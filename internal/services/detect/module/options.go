package module

import (
	"time"

	"phishguard/internal/platform/config"
)

// Options holds configuration settings for the detect module
type Options struct {
	Threshold   float64
	DNSTimeout  time.Duration
	DNSUpstream string
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	df := cfg.Prefix("CORE_DETECT_")
	return Options{
		Threshold:   df.MayFloat64("THRESHOLD", 0.8),
		DNSTimeout:  df.MayDuration("DNS_TIMEOUT", 2*time.Second),
		DNSUpstream: df.MayString("DNS_UPSTREAM", ""),
	}
}
