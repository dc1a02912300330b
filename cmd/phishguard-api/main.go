// @title         phishguard API
// @version       0.1.0
// @description   Phishing URL checks with per app daily quotas

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"phishguard/internal/boot"
	"phishguard/internal/core/quota"
	"phishguard/internal/modkit"
	"phishguard/internal/modkit/repokit"
	"phishguard/internal/platform/config"
	"phishguard/internal/platform/logger"
	phttp "phishguard/internal/platform/net/http"
	"phishguard/internal/platform/store"

	"phishguard/internal/services/api"
	refreshdom "phishguard/internal/services/refresh/domain"
	refreshmod "phishguard/internal/services/refresh/module"
)

func main() {
	_ = godotenv.Load()

	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// no model, no server
	clf, err := boot.Classifier(root)
	if err != nil {
		l.Panic().Err(err).Msg("model load failed")
	}

	st, err := boot.OpenStore(ctx, root, "phishguard-api")
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	if p, ok := st.PG.(store.Pinger); ok {
		repokit.MustPing(ctx, "pg", p)
	}

	bl := boot.Blacklist(root)
	q := quota.New()

	// http server (reads CORE_API_PORT and the timeouts)
	srv := phttp.NewServer(apiCfg)
	mounted := api.Mount(srv.Router(), api.Options{
		Config:         root,
		Store:          st,
		Logger:         l,
		Blacklist:      bl,
		Classifier:     clf,
		Quota:          q,
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
		EnableSwagger:  apiCfg.MayBool("SWAGGER", false),
	})

	rm := refreshmod.New(
		modkit.Deps{Cfg: root, PG: st.PG, Log: *l},
		refreshmod.Options{},
		modkit.WithPorts(refreshdom.Ports{Blacklist: bl, Quota: q, Usage: mounted.Usage, Cache: bl}),
	)
	// first cycle is synchronous; with CORE_REFRESH_ENABLED=false the cache dir
	// written by phishguard-refresh is followed instead of ticking here
	if err := rm.Start(ctx); err != nil {
		l.Warn().Err(err).Bool("scheduled", rm.Enabled()).Msg("first refresh cycle incomplete")
	}
	defer rm.Stop()

	l.Info().Str("addr", srv.Addr()).Uint64("blacklist_generation", bl.Current().Generation).Msg("serving")
	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
