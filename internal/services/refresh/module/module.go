// Package module implements the refresh module
package module

import (
	"context"
	"errors"

	"phishguard/internal/modkit"
	phttp "phishguard/internal/platform/net/http"
	"phishguard/internal/services/refresh/domain"
	"phishguard/internal/services/refresh/service"
)

// Ports exposed by the refresh module
type Ports struct {
	Scheduler domain.SchedulerPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	opts  Options
	ports Ports

	// follower tracks the cache dir when the cycle runs in another process
	follower *service.Scheduler
}

// New constructs the refresh module; the scheduler is not started
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("refresh"),
	}, opts...)...)

	ports, ok := b.Ports.(domain.Ports)
	if !ok {
		panic("refresh module: expected WithPorts(refresh/domain.Ports)")
	}
	if ports.Blacklist == nil || ports.Quota == nil {
		panic("refresh module: Ports missing Blacklist or Quota")
	}

	cfg := FromConfig(deps.Cfg)
	if overrides.Every != 0 {
		cfg.Every = overrides.Every
	}
	if overrides.CacheEvery != 0 {
		cfg.CacheEvery = overrides.CacheEvery
	}

	sched := service.New(service.Config{Every: cfg.Every},
		service.BlacklistJob{Store: ports.Blacklist},
		service.QuotaResetJob{Quota: ports.Quota, Usage: ports.Usage},
	)
	m := &Module{deps: deps, opts: cfg, ports: Ports{Scheduler: sched}}
	if !cfg.Enabled && ports.Cache != nil {
		m.follower = service.New(service.Config{Every: cfg.CacheEvery}, service.CacheReloadJob{Cache: ports.Cache})
	}
	return m
}

// Enabled reports whether the periodic ticker should be started
func (m *Module) Enabled() bool { return m.opts.Enabled }

// Start runs the refresh cycle on its ticker when enabled. Otherwise one cycle
// runs now and, given a Cache port, the cache dir written by the external
// refresh is followed on the CacheEvery ticker
func (m *Module) Start(ctx context.Context) error {
	if m.opts.Enabled {
		return m.ports.Scheduler.Start(ctx)
	}
	err := m.ports.Scheduler.RunOnce(ctx)
	if m.follower != nil {
		if ferr := m.follower.Start(ctx); ferr != nil {
			return errors.Join(err, ferr)
		}
	}
	return err
}

// Stop ends whichever tickers Start launched
func (m *Module) Stop() {
	m.ports.Scheduler.Stop()
	if m.follower != nil {
		m.follower.Stop()
	}
}

// MountRoutes satisfies modkit.Module; the scheduler has no routes
func (m *Module) MountRoutes(phttp.Router) {}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "refresh" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }
