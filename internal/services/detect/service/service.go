// Package service implements the detection cascade
package service

import (
	"context"

	"phishguard/internal/core/resolver"
	"phishguard/internal/core/urlnorm"
	"phishguard/internal/platform/logger"
	str "phishguard/internal/platform/strings"
	"phishguard/internal/services/detect/domain"
)

// Config for the detect service
type Config struct {
	// Threshold is exclusive: a score must be strictly greater to flag
	Threshold float64
}

// Service implements domain.CheckerPort
type Service struct {
	Snaps  domain.SnapshotPort
	Scorer domain.ScorerPort
	DNS    resolver.Resolver
	Cfg    Config
}

// New constructs a detect service. A nil resolver disables DNS based IP matching
func New(snaps domain.SnapshotPort, scorer domain.ScorerPort, dns resolver.Resolver, cfg Config) *Service {
	if cfg.Threshold <= 0 || cfg.Threshold >= 1 {
		cfg.Threshold = 0.8
	}
	return &Service{Snaps: snaps, Scorer: scorer, DNS: dns, Cfg: cfg}
}

// Check walks exact URL, domain, IP and classifier stages and returns the first hit.
// The whole call reads one snapshot
func (s *Service) Check(ctx context.Context, raw string) domain.Verdict {
	snap := s.Snaps.Current()
	u := urlnorm.Normalize(raw)
	log := logger.C(ctx)

	if snap.HasURL(u) {
		return s.done(log, u, domain.Blacklisted(domain.ReasonURL))
	}

	host, ok := urlnorm.Hostname(u)
	if ok {
		if snap.HasDomain(host) {
			return s.done(log, u, domain.Blacklisted(domain.ReasonDomain))
		}
		if s.ipListed(ctx, host, snap) {
			return s.done(log, u, domain.Blacklisted(domain.ReasonIP))
		}
	}

	p := s.Scorer.Score(u)
	if p > s.Cfg.Threshold {
		return s.done(log, u, domain.Verdict{IsPhishing: true, Confidence: p, Reason: domain.ReasonClassifier})
	}
	return s.done(log, u, domain.Verdict{IsPhishing: false, Confidence: p, Reason: domain.ReasonClean})
}

type ipSet interface {
	HasIP(ip string) bool
	HasIPEntries() bool
}

func (s *Service) ipListed(ctx context.Context, host string, snap ipSet) bool {
	if urlnorm.IsIPv4Literal(host) {
		return snap.HasIP(host)
	}
	if s.DNS == nil || !snap.HasIPEntries() {
		return false
	}
	ips, err := s.DNS.LookupIPv4(ctx, host)
	if err != nil {
		logger.C(ctx).Debug().Err(err).Str("host", host).Msg("resolve failed; ip stage skipped")
		return false
	}
	for _, ip := range ips {
		if snap.HasIP(ip) {
			return true
		}
	}
	return false
}

func (s *Service) done(log *logger.Logger, u string, v domain.Verdict) domain.Verdict {
	log.Debug().
		Str("url", str.Truncate(u, 256)).
		Bool("phishing", v.IsPhishing).
		Float64("confidence", v.Confidence).
		Str("reason", string(v.Reason)).
		Msg("url checked")
	return v
}
