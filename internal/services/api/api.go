// Package api provides the HTTP API for the application
package api

import (
	"phishguard/internal/core/blacklist"
	"phishguard/internal/core/classifier"
	"phishguard/internal/core/quota"
	"phishguard/internal/platform/config"
	"phishguard/internal/platform/logger"
	phttp "phishguard/internal/platform/net/http"
	"phishguard/internal/platform/store"

	"phishguard/internal/modkit"
	"phishguard/internal/modkit/httpkit"
	"phishguard/internal/modkit/module"
	"phishguard/internal/modkit/swaggerkit"

	metamod "phishguard/internal/services/api/meta/module"
	urlsdom "phishguard/internal/services/api/urls/domain"
	urlsmod "phishguard/internal/services/api/urls/module"
	detectdom "phishguard/internal/services/detect/domain"
	detectmod "phishguard/internal/services/detect/module"
	refreshdom "phishguard/internal/services/refresh/domain"
)

// Options are the API options
type Options struct {
	// Config is the unprefixed root; modules apply their own prefixes
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	Blacklist      *blacklist.Store
	Classifier     *classifier.Classifier
	Quota          *quota.Tracker
	EnableProfiler bool
	EnableSwagger  bool
}

// Mounted carries ports other components need after mounting
type Mounted struct {
	Usage refreshdom.UsageResetPort
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) Mounted {
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}

	// detect has no routes; its Checker port feeds urls
	det := detectmod.New(deps, detectmod.Options{}, modkit.WithPorts(detectdom.Ports{
		Snapshots: opt.Blacklist,
		Scorer:    opt.Classifier,
	}))

	urls := urlsmod.New(deps, modkit.WithPorts(urlsdom.Ports{
		Checker: module.MustPortsOf[detectdom.CheckerPort](det),
		Quota:   opt.Quota,
	}))

	mods := []module.Module{
		metamod.New(deps, modkit.WithPorts(metamod.Ports{
			Blacklist: opt.Blacklist,
			Model:     opt.Classifier,
		})),
		urls,
	}

	r.Use(httpkit.BaseStack()...)
	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	httpkit.MountAPIV1(r, httpkit.CommonStack(opt.Config.Prefix("CORE_API_")), func(api httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(api)
		}
	})

	return Mounted{Usage: module.MustPortsOf[refreshdom.UsageResetPort](urls)}
}
