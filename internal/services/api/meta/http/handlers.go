// Package http provides meta endpoints
package http

import (
	stdctx "context"
	"net/http"
	"time"

	"phishguard/internal/core/blacklist"
	"phishguard/internal/core/model"
	"phishguard/internal/core/version"
	"phishguard/internal/modkit/httpkit"
)

// Pinger is satisfied by adapters that expose Ping
type Pinger interface {
	Ping(stdctx.Context) error
}

// SnapshotSource hands out the live blacklist generation
type SnapshotSource interface {
	Current() *blacklist.Snapshot
}

// ManifestSource describes the loaded classifier
type ManifestSource interface {
	Manifest() model.Manifest
}

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	PG          any
	Blacklist   SnapshotSource
	Model       ManifestSource
}

type handlers struct {
	deps Deps
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}

	httpkit.GetJSON(r, "/health", h.health)
	httpkit.GetJSON(r, "/ready", h.ready)
	httpkit.GetJSON(r, "/version", h.version)
	httpkit.GetJSON(r, "/blacklist", h.blacklist)
	httpkit.GetJSON(r, "/model", h.model)
}

//
// Swagger DTOs and route docs
//

// HealthResponse is the health payload
// swagger:model
type HealthResponse struct {
	OK      bool   `json:"ok"       example:"true"`
	Service string `json:"service"  example:"phishguard-api"`
	Started string `json:"started"  example:"2026-01-02T13:00:00Z"`
	Now     string `json:"now"      example:"2026-01-02T13:05:00Z"`
	Uptime  int64  `json:"uptime"   example:"300"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"   example:"pg"`
	Status string `json:"status" example:"ok"` // ok fail empty skipped unknown
	Error  string `json:"error,omitempty" example:"dial tcp 127.0.0.1:5432 connect: connection refused"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"` // ok degraded fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2026-01-02T13:05:00Z"`
}

// ModelResponse reports the loaded classifier shape
type ModelResponse struct {
	Version      string `json:"version"       example:"2026.01"`
	EmbeddingDim int    `json:"embedding_dim" example:"128"`
	HiddenDim    int    `json:"hidden_dim"    example:"128"`
	Layers       int    `json:"layers"        example:"2"`
	MaxLen       int    `json:"max_len"       example:"200"`
}

// swagger:route GET /meta/health Meta metaHealth
// @Summary Health check
// @Tags Meta
// @Produce json
// @Success 200 type HealthResponse ok
// @Router /meta/health [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Now:     time.Now().UTC().Format(time.RFC3339),
		Uptime:  int64(time.Since(h.deps.StartedAt) / time.Second),
	}, nil
}

// swagger:route GET /meta/ready Meta metaReady
// @Summary Readiness with dependency checks
// @Tags Meta
// @Produce json
// @Success 200 type ReadyResponse ok
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := stdctx.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	pg := ReadyCheck{Name: "pg", Status: "skipped"}
	if h.deps.PG != nil {
		pg.Status = "unknown"
		if p, ok := h.deps.PG.(Pinger); ok {
			pg.Status = "ok"
			if err := p.Ping(ctx); err != nil {
				pg.Status, pg.Error = "fail", err.Error()
			}
		}
	}

	bl := ReadyCheck{Name: "blacklist", Status: "skipped"}
	if h.deps.Blacklist != nil {
		bl.Status = "ok"
		if h.deps.Blacklist.Current().Generation == 0 {
			bl.Status, bl.Error = "empty", "no blacklist generation loaded"
		}
	}

	overall := "ok"
	for _, c := range []ReadyCheck{pg, bl} {
		switch {
		case c.Status == "fail":
			overall = "fail"
		case c.Status != "ok" && overall == "ok":
			overall = "degraded"
		}
	}

	return ReadyResponse{
		Status: overall,
		Checks: []ReadyCheck{pg, bl},
		Now:    time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// swagger:route GET /meta/version Meta metaVersion
// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 type version.BuildInfo ok
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(), nil
}

// swagger:route GET /meta/blacklist Meta metaBlacklist
// @Summary Current blacklist generation and set sizes
// @Tags Meta
// @Produce json
// @Success 200 type blacklist.Stats ok
// @Router /meta/blacklist [get]
func (h *handlers) blacklist(_ *http.Request) (any, error) {
	if h.deps.Blacklist == nil {
		return blacklist.Stats{Source: blacklist.SourceNone}, nil
	}
	return h.deps.Blacklist.Current().Stats(), nil
}

// swagger:route GET /meta/model Meta metaModel
// @Summary Loaded classifier version and dimensions
// @Tags Meta
// @Produce json
// @Success 200 type ModelResponse ok
// @Router /meta/model [get]
func (h *handlers) model(_ *http.Request) (any, error) {
	if h.deps.Model == nil {
		return ModelResponse{}, nil
	}
	m := h.deps.Model.Manifest()
	return ModelResponse{
		Version:      m.Version,
		EmbeddingDim: m.EmbeddingDim,
		HiddenDim:    m.HiddenDim,
		Layers:       m.Layers,
		MaxLen:       m.MaxLen,
	}, nil
}
