// Package module wires url checks into the API using modkit
package module

import (
	"net/http"

	modkit "phishguard/internal/modkit"
	"phishguard/internal/modkit/httpkit"
	"phishguard/internal/modkit/repokit"
	str "phishguard/internal/platform/strings"
	"phishguard/internal/services/api/urls/domain"
	urlshttp "phishguard/internal/services/api/urls/http"
	urlsrepo "phishguard/internal/services/api/urls/repo"
	urlssvc "phishguard/internal/services/api/urls/service"
	refreshdom "phishguard/internal/services/refresh/domain"
)

// Ports exposed by the urls module
type Ports struct {
	Service domain.ServicePort
	Usage   refreshdom.UsageResetPort
}

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler
	ports  Ports

	register func(httpkit.Router)
}

// New constructs the urls module; WithPorts(domain.Ports) is required
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("urls"), modkit.WithPrefix("/urls")}, opts...)...)

	ports, ok := b.Ports.(domain.Ports)
	if !ok {
		panic("urls module: expected WithPorts(urls/domain.Ports)")
	}
	if ports.Checker == nil || ports.Quota == nil {
		panic("urls module: Ports missing Checker or Quota")
	}

	cfg := FromConfig(deps.Cfg)
	binder := urlsrepo.NewPG()
	var db repokit.TxRunner
	if deps.PG != nil {
		db = repokit.WithBeginHooks(deps.PG, repokit.StatementTimeout(cfg.StatementTimeout))
	}
	svc := urlssvc.New(db, binder, ports.Checker, ports.Quota, urlssvc.Config{
		MaxBatch:        cfg.MaxBatch,
		Parallel:        cfg.Parallel,
		DefaultDayLimit: int64(cfg.DefaultDayLimit),
	})

	m := &Module{
		deps:   deps,
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		ports:  Ports{Service: svc, Usage: svc.Repo},
	}
	m.register = func(r httpkit.Router) { urlshttp.Register(r, svc) }
	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.Prefix(), func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		m.register(rr)
	})
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return m.ports }
