package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"phishguard/internal/boot"
	"phishguard/internal/modkit"
	"phishguard/internal/modkit/module"
	"phishguard/internal/platform/config"
	"phishguard/internal/platform/logger"

	detectdom "phishguard/internal/services/detect/domain"
	detectmod "phishguard/internal/services/detect/module"
)

type result struct {
	URL string `json:"url"`
	detectdom.Verdict
}

func main() {
	_ = godotenv.Load()

	var (
		cacheOnly = flag.Bool("cache-only", false, "seed the blacklist from CORE_BLACKLIST_CACHE_DIR instead of downloading")
		noFeeds   = flag.Bool("no-feeds", false, "skip the blacklist and run the classifier stage only")
		threshold = flag.Float64("threshold", 0, "override CORE_DETECT_THRESHOLD")
		failPhish = flag.Bool("fail-on-phish", false, "exit 2 when any url is flagged")
		timeout   = flag.Duration("timeout", 30*time.Second, "overall deadline")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] url...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(64)
	}

	root := config.New()
	l := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	clf, err := boot.Classifier(root)
	if err != nil {
		l.Panic().Err(err).Msg("model load failed")
	}

	bl := boot.Blacklist(root)
	switch {
	case *noFeeds:
	case *cacheOnly:
		if err := bl.SeedFromCache(); err != nil {
			l.Warn().Err(err).Msg("cache seed failed; blacklist stages will not match")
		}
	default:
		if err := bl.Refresh(ctx); err != nil {
			l.Warn().Err(err).Msg("feed refresh failed")
		}
	}

	dm := detectmod.New(
		modkit.Deps{Cfg: root, Log: *l},
		detectmod.Options{Threshold: *threshold},
		modkit.WithPorts(detectdom.Ports{Snapshots: bl, Scorer: clf}),
	)
	chk := module.MustPortsOf[detectdom.CheckerPort](dm)

	enc := json.NewEncoder(os.Stdout)
	flagged := false
	for _, u := range flag.Args() {
		v := chk.Check(ctx, u)
		flagged = flagged || v.IsPhishing
		if err := enc.Encode(result{URL: u, Verdict: v}); err != nil {
			l.Panic().Err(err).Msg("write result")
		}
	}
	if *failPhish && flagged {
		cancel()
		os.Exit(2)
	}
}
