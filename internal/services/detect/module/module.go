// Package module implements the detect module
package module

import (
	"phishguard/internal/core/resolver"
	"phishguard/internal/modkit"
	phttp "phishguard/internal/platform/net/http"
	"phishguard/internal/services/detect/domain"
	"phishguard/internal/services/detect/service"
)

// Ports exposed by the detect module
type Ports struct {
	Checker domain.CheckerPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new detect module
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("detect"),
	}, opts...)...)

	// Basic guardrails against incorrect wiring
	ports, ok := b.Ports.(domain.Ports)
	if !ok {
		panic("detect module: expected WithPorts(detect/domain.Ports)")
	}
	if ports.Snapshots == nil || ports.Scorer == nil {
		panic("detect module: Ports missing Snapshots or Scorer")
	}

	// Merge config + overrides
	cfg := FromConfig(deps.Cfg)
	if overrides.Threshold != 0 {
		cfg.Threshold = overrides.Threshold
	}
	if overrides.DNSTimeout != 0 {
		cfg.DNSTimeout = overrides.DNSTimeout
	}
	if overrides.DNSUpstream != "" {
		cfg.DNSUpstream = overrides.DNSUpstream
	}

	res := ports.Resolver
	if res == nil {
		res = resolver.New(resolver.Options{Timeout: cfg.DNSTimeout, Upstream: cfg.DNSUpstream})
	}

	m := &Module{deps: deps}
	m.ports = Ports{
		Checker: service.New(ports.Snapshots, ports.Scorer, res, service.Config{Threshold: cfg.Threshold}),
	}
	return m
}

// MountRoutes satisfies modkit.Module; detect is consumed through its ports
func (m *Module) MountRoutes(phttp.Router) {}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "detect" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }
