// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"net/http"
	"time"

	modkit "phishguard/internal/modkit"
	"phishguard/internal/modkit/httpkit"
	str "phishguard/internal/platform/strings"

	metahttp "phishguard/internal/services/api/meta/http"
)

// Ports are the optional sources the meta endpoints report on
type Ports struct {
	Blacklist metahttp.SnapshotSource
	Model     metahttp.ManifestSource
}

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler

	register func(httpkit.Router)

	startedAt time.Time
}

// New constructs a meta module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	ports, _ := b.Ports.(Ports)
	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		startedAt: time.Now(),
	}

	d := metahttp.Deps{
		ServiceName: "phishguard-api",
		StartedAt:   m.startedAt,
		Blacklist:   ports.Blacklist,
		Model:       ports.Model,
	}
	// a nil TxRunner must stay an untyped nil so ready reports skipped
	if deps.PG != nil {
		d.PG = deps.PG
	}
	m.register = func(r httpkit.Router) { metahttp.Register(r, d) }
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
func (m *Module) Name() string { return str.MustString(m.name, "meta") }

// Prefix implements the modkit.Module interface
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
