// Package service contains the url check and history workflows
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"phishguard/internal/modkit/repokit"
	perr "phishguard/internal/platform/errors"
	"phishguard/internal/platform/logger"
	ptime "phishguard/internal/platform/time"
	"phishguard/internal/services/api/urls/domain"
	"phishguard/internal/services/api/urls/repo"
	detectdom "phishguard/internal/services/detect/domain"
)

// Service defines the service contract for urls
type Service interface{ domain.ServicePort }

// Config for the urls service
type Config struct {
	MaxBatch        int
	Parallel        int
	DefaultDayLimit int64
}

// Svc implements the Service interface
type Svc struct {
	Repo    repo.Repo
	binder  repokit.Binder[repo.Repo]
	db      repokit.TxRunner
	checker detectdom.CheckerPort
	quota   domain.QuotaPort
	cfg     Config
	now     func() time.Time
}

// New creates a new urls service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], checker detectdom.CheckerPort, q domain.QuotaPort, cfg Config) *Svc {
	if db == nil {
		panic("urls.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("urls.Service requires a non nil Repo binder")
	}
	if checker == nil || q == nil {
		panic("urls.Service requires a Checker and a Quota")
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = 10
	}
	if cfg.Parallel <= 0 {
		cfg.Parallel = 4
	}
	if cfg.DefaultDayLimit <= 0 {
		cfg.DefaultDayLimit = 1000
	}
	return &Svc{
		Repo:    binder.Bind(db),
		binder:  binder,
		db:      db,
		checker: checker,
		quota:   q,
		cfg:     cfg,
		now:     time.Now,
	}
}

// One checks a single URL against the caller's quota
func (s *Svc) One(ctx context.Context, in domain.OneInput) (detectdom.Verdict, error) {
	out, err := s.check(ctx, in.APIKey, []string{in.URL})
	if err != nil {
		return detectdom.Verdict{}, err
	}
	return out[0], nil
}

// List checks up to MaxBatch URLs; the batch reserves one unit per URL
func (s *Svc) List(ctx context.Context, in domain.ListInput) ([]detectdom.Verdict, error) {
	if len(in.URLs) > s.cfg.MaxBatch {
		return nil, perr.WithField(
			perr.TooManyf("batch limit exceeded, max %d urls per batch", s.cfg.MaxBatch), "urls")
	}
	return s.check(ctx, in.APIKey, in.URLs)
}

// check runs lookup, reserve, detect, record, commit and persist in that order
func (s *Svc) check(ctx context.Context, apiKey string, urls []string) ([]detectdom.Verdict, error) {
	if len(urls) == 0 {
		return nil, perr.WithField(perr.InvalidArgf("no urls to check"), "urls")
	}
	app, err := s.lookup(ctx, apiKey, "api_key")
	if err != nil {
		return nil, err
	}
	ctx = logger.WithApp(ctx, app.ID)
	log := logger.C(ctx)

	s.quota.Observe(app.ID, s.limitOf(app), app.URLCountOnDay, app.UsageEpoch)
	res, err := s.quota.TryReserve(app.ID, int64(len(urls)))
	if err != nil {
		log.Info().Int("urls", len(urls)).Msg("urls: quota rejected")
		return nil, err
	}

	verdicts := s.detect(ctx, urls)

	batch := uuid.NewString()
	at := s.now().UTC()
	entries := make([]domain.StatEntry, len(urls))
	for i, u := range urls {
		entries[i] = domain.StatEntry{URL: u, Verdict: verdicts[i], AppID: app.ID, BatchID: batch, CheckedAt: at}
	}
	if err := repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		return s.binder.Bind(q).AppendStats(ctx, entries)
	}); err != nil {
		s.quota.Release(res)
		log.Error().Err(err).Str("batch", batch).Msg("urls: stats not recorded; reservation released")
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "database error occurred")
	}

	count := s.quota.Commit(res)
	switch err := s.Repo.PersistUsage(ctx, app.ID, count, app.UsageEpoch); {
	case err == nil:
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		log.Debug().Int64("usage_epoch", app.UsageEpoch).Msg("urls: usage reset since lookup; persist skipped")
	default:
		log.Warn().Err(err).Int64("count", count).Msg("urls: usage not persisted")
	}
	return verdicts, nil
}

// detect fans urls out over a bounded pool; results keep input order
func (s *Svc) detect(ctx context.Context, urls []string) []detectdom.Verdict {
	out := make([]detectdom.Verdict, len(urls))
	if len(urls) == 1 {
		out[0] = s.checker.Check(ctx, urls[0])
		return out
	}
	var g errgroup.Group
	g.SetLimit(s.cfg.Parallel)
	for i, u := range urls {
		g.Go(func() error {
			out[i] = s.checker.Check(ctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// History reports an app's checks in time order, optionally bounded
func (s *Svc) History(ctx context.Context, in domain.HistoryInput) (domain.History, error) {
	start, err := ptime.ParseOptional("start_dt", in.StartDT)
	if err != nil {
		return domain.History{}, err
	}
	end, err := ptime.ParseOptional("end_dt", in.EndDT)
	if err != nil {
		return domain.History{}, err
	}

	app, err := s.lookup(ctx, in.Token, "token")
	if err != nil {
		return domain.History{}, err
	}
	rows, err := s.Repo.History(ctx, app.ID, start, end)
	if err != nil {
		return domain.History{}, err
	}

	limit, used := s.limitOf(app), app.URLCountOnDay
	s.quota.Observe(app.ID, limit, used, app.UsageEpoch)
	if c, l, ok := s.quota.Usage(app.ID); ok {
		limit, used = l, c
	}

	h := domain.History{
		AppName:           app.Name,
		AllURLs:           len(rows),
		DayLimit:          limit,
		DayLimitRemaining: max(limit-used, 0),
		HistoryURLs:       make([]string, 0, len(rows)),
		HistoryResults:    make([]detectdom.Verdict, 0, len(rows)),
		HistoryTS:         make([]time.Time, 0, len(rows)),
	}
	for _, r := range rows {
		if r.Verdict.IsPhishing {
			h.PhishingURLs++
		}
		h.HistoryURLs = append(h.HistoryURLs, r.URL)
		h.HistoryResults = append(h.HistoryResults, r.Verdict)
		h.HistoryTS = append(h.HistoryTS, r.CheckedAt)
	}
	return h, nil
}

func (s *Svc) lookup(ctx context.Context, key, field string) (domain.App, error) {
	app, err := s.Repo.LookupApp(ctx, key)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.App{}, perr.WithField(perr.NotFoundf("App doesn't find!"), field)
		}
		return domain.App{}, err
	}
	return app, nil
}

func (s *Svc) limitOf(app domain.App) int64 {
	if app.DayLimit > 0 {
		return app.DayLimit
	}
	return s.cfg.DefaultDayLimit
}
