package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"phishguard/internal/boot"
	"phishguard/internal/modkit/repokit"
	"phishguard/internal/platform/config"
	"phishguard/internal/platform/logger"
	"phishguard/internal/platform/store"
	urlsrepo "phishguard/internal/services/api/urls/repo"
	refreshdom "phishguard/internal/services/refresh/domain"
	refreshsvc "phishguard/internal/services/refresh/service"
)

func main() {
	_ = godotenv.Load()

	var (
		doFeeds = flag.Bool("blacklist", true, "download the feeds and update the cache dir")
		doReset = flag.Bool("reset", true, "zero every app's daily usage counter")
	)
	flag.Parse()

	if err := run(*doFeeds, *doReset); err != nil {
		logger.Get().Error().Err(err).Msg("refresh cycle failed")
		os.Exit(1)
	}
}

func run(doFeeds, doReset bool) error {
	root := config.New()
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var jobs []refreshdom.Job
	if doFeeds {
		jobs = append(jobs, refreshsvc.BlacklistJob{Store: boot.Blacklist(root)})
	}
	if doReset {
		st, err := boot.OpenStore(ctx, root, "phishguard-refresh")
		if err != nil {
			return err
		}
		defer func() {
			if err := st.Close(context.Background()); err != nil {
				l.Error().Err(err).Msg("failed to close store")
			}
		}()
		if p, ok := st.PG.(store.Pinger); ok {
			repokit.MustPing(ctx, "pg", p)
		}
		// serving processes notice the new usage epoch on their next lookup
		jobs = append(jobs, refreshsvc.QuotaResetJob{Usage: urlsrepo.NewPG().Bind(st.PG)})
	}
	if len(jobs) == 0 {
		l.Warn().Msg("nothing to do")
		return nil
	}
	return refreshsvc.New(refreshsvc.Config{}, jobs...).RunOnce(ctx)
}
