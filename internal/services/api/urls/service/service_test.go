package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"phishguard/internal/core/quota"
	"phishguard/internal/modkit/repokit"
	perr "phishguard/internal/platform/errors"
	kit "phishguard/internal/platform/testkit"
	"phishguard/internal/services/api/urls/domain"
	"phishguard/internal/services/api/urls/repo"
	detectdom "phishguard/internal/services/detect/domain"
)

type fakeDB struct{}

func (fakeDB) Exec(context.Context, string, ...any) (repokit.CommandTag, error) { return nil, nil }
func (fakeDB) Query(context.Context, string, ...any) (repokit.Rows, error)      { return nil, nil }
func (fakeDB) QueryRow(context.Context, string, ...any) repokit.Row             { return nil }
func (f fakeDB) Tx(_ context.Context, fn func(repokit.Queryer) error) error     { return fn(f) }

type fakeRepo struct {
	mu        sync.Mutex
	apps      map[string]domain.App
	stats     []domain.StatEntry
	persisted map[int64]int64
	appendErr error
	history   []domain.StatEntry
	bounds    [2]*time.Time
}

func newRepo(apps ...domain.App) *fakeRepo {
	r := &fakeRepo{apps: map[string]domain.App{}, persisted: map[int64]int64{}}
	for _, a := range apps {
		r.apps[a.Token] = a
	}
	return r
}

func (r *fakeRepo) LookupApp(_ context.Context, key string) (domain.App, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[key]
	if !ok {
		return domain.App{}, perr.ErrNotFound
	}
	return a, nil
}

func (r *fakeRepo) PersistUsage(_ context.Context, id, n, epoch int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, a := range r.apps {
		if a.ID != id {
			continue
		}
		if a.UsageEpoch != epoch {
			return perr.ErrNotFound
		}
		a.URLCountOnDay = min(n, a.DayLimit)
		r.apps[k] = a
	}
	r.persisted[id] = n
	return nil
}

func (r *fakeRepo) AppendStats(_ context.Context, xs []domain.StatEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.stats = append(r.stats, xs...)
	return nil
}

func (r *fakeRepo) ResetUsage(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, a := range r.apps {
		a.URLCountOnDay = 0
		a.UsageEpoch++
		r.apps[k] = a
	}
	return int64(len(r.apps)), nil
}

func (r *fakeRepo) History(_ context.Context, _ int64, start, end *time.Time) ([]domain.StatEntry, error) {
	r.bounds = [2]*time.Time{start, end}
	return r.history, nil
}

type echoChecker struct{ calls atomic.Int32 }

// Check flags every url containing "bad" and echoes the url length as confidence
func (c *echoChecker) Check(_ context.Context, u string) detectdom.Verdict {
	c.calls.Add(1)
	if len(u) >= 3 && u[:3] == "bad" {
		return detectdom.Blacklisted(detectdom.ReasonDomain)
	}
	return detectdom.Verdict{Confidence: float64(len(u)) / 100, Reason: detectdom.ReasonClean}
}

func newSvc(r *fakeRepo, q *quota.Tracker) (*Svc, *echoChecker) {
	chk := &echoChecker{}
	binder := repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return r })
	return New(fakeDB{}, binder, chk, q, Config{}), chk
}

var shop = domain.App{ID: 7, Name: "shop", Token: "key", DayLimit: 3}

func TestOne_RecordsAndCommits(t *testing.T) {
	r := newRepo(shop)
	s, _ := newSvc(r, quota.New())

	v, err := s.One(context.Background(), domain.OneInput{URL: "bad.example", APIKey: "key"})
	if err != nil {
		t.Fatal(err)
	}
	if v != detectdom.Blacklisted(detectdom.ReasonDomain) {
		t.Fatalf("verdict %+v", v)
	}
	if len(r.stats) != 1 || r.stats[0].URL != "bad.example" || r.stats[0].AppID != 7 || r.stats[0].BatchID == "" {
		t.Fatalf("stats %+v", r.stats)
	}
	if r.persisted[7] != 1 {
		t.Fatalf("persisted %v", r.persisted)
	}
}

func TestOne_UnknownKeyIsNotFound(t *testing.T) {
	s, chk := newSvc(newRepo(shop), quota.New())
	_, err := s.One(context.Background(), domain.OneInput{URL: "x", APIKey: "nope"})
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("want NotFound, got %v", err)
	}
	kit.MustContain(t, err.Error(), "App doesn't find!")
	if chk.calls.Load() != 0 {
		t.Fatal("detection ran for unknown app")
	}
}

func TestOne_QuotaExhausted(t *testing.T) {
	r := newRepo(shop)
	s, chk := newSvc(r, quota.New())
	for i := 0; i < 3; i++ {
		if _, err := s.One(context.Background(), domain.OneInput{URL: "ok.example", APIKey: "key"}); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	_, err := s.One(context.Background(), domain.OneInput{URL: "ok.example", APIKey: "key"})
	if !perr.IsCode(err, perr.ErrorCodeTooManyRequests) {
		t.Fatalf("want TooManyRequests, got %v", err)
	}
	if chk.calls.Load() != 3 || len(r.stats) != 3 || r.persisted[7] != 3 {
		t.Fatalf("calls=%d stats=%d persisted=%d", chk.calls.Load(), len(r.stats), r.persisted[7])
	}
}

func TestOne_FiveOfFiveThenRejected(t *testing.T) {
	app := shop
	app.DayLimit = 5
	r := newRepo(app)
	q := quota.New()
	s, chk := newSvc(r, q)

	for i := range 5 {
		if _, err := s.One(context.Background(), domain.OneInput{URL: "ok.example", APIKey: "key"}); err != nil {
			t.Fatalf("call %d: %v", i+1, err)
		}
	}
	_, err := s.One(context.Background(), domain.OneInput{URL: "ok.example", APIKey: "key"})
	if !perr.IsCode(err, perr.ErrorCodeTooManyRequests) {
		t.Fatalf("sixth call: want TooManyRequests, got %v", err)
	}
	if c, _, _ := q.Usage(7); c != 5 {
		t.Fatalf("count=%d want 5", c)
	}
	if chk.calls.Load() != 5 || r.persisted[7] != 5 {
		t.Fatalf("calls=%d persisted=%d", chk.calls.Load(), r.persisted[7])
	}
}

func TestOne_PersistedResetReopensQuota(t *testing.T) {
	r := newRepo(shop)
	q := quota.New()
	s, _ := newSvc(r, q)
	ctx := context.Background()

	for range 3 {
		if _, err := s.One(ctx, domain.OneInput{URL: "ok", APIKey: "key"}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.One(ctx, domain.OneInput{URL: "ok", APIKey: "key"}); !perr.IsCode(err, perr.ErrorCodeTooManyRequests) {
		t.Fatalf("want TooManyRequests, got %v", err)
	}

	// another process zeroes the stored counters
	if _, err := r.ResetUsage(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.One(ctx, domain.OneInput{URL: "ok", APIKey: "key"}); err != nil {
		t.Fatalf("after stored reset: %v", err)
	}
	if c, _, _ := q.Usage(7); c != 1 {
		t.Fatalf("count=%d want 1", c)
	}
	if r.apps["key"].URLCountOnDay != 1 {
		t.Fatalf("stored count=%d want 1", r.apps["key"].URLCountOnDay)
	}
}

func TestOne_SeedsFromPersistedCount(t *testing.T) {
	used := shop
	used.URLCountOnDay = 3
	s, _ := newSvc(newRepo(used), quota.New())
	_, err := s.One(context.Background(), domain.OneInput{URL: "ok", APIKey: "key"})
	if !perr.IsCode(err, perr.ErrorCodeTooManyRequests) {
		t.Fatalf("want TooManyRequests, got %v", err)
	}
}

func TestOne_StatsFailureReleasesReservation(t *testing.T) {
	r := newRepo(shop)
	r.appendErr = errors.New("disk full")
	q := quota.New()
	s, _ := newSvc(r, q)

	_, err := s.One(context.Background(), domain.OneInput{URL: "ok", APIKey: "key"})
	if !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("want DB, got %v", err)
	}
	if c, _, _ := q.Usage(7); c != 0 {
		t.Fatalf("reservation leaked, count=%d", c)
	}
	if _, ok := r.persisted[7]; ok {
		t.Fatal("usage persisted after failed stats")
	}
}

func TestList_OrderAndBatchAccounting(t *testing.T) {
	app := shop
	app.DayLimit = 10
	r := newRepo(app)
	q := quota.New()
	s, _ := newSvc(r, q)

	urls := []string{"bad.one", "fine.example", "bad.two", "a"}
	out, err := s.List(context.Background(), domain.ListInput{URLs: urls, APIKey: "key"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 4 || !out[0].IsPhishing || out[1].IsPhishing || !out[2].IsPhishing || out[3].Confidence != 0.01 {
		t.Fatalf("verdicts out of order: %+v", out)
	}
	if c, _, _ := q.Usage(7); c != 4 {
		t.Fatalf("batch reserved %d units, want 4", c)
	}
	if r.persisted[7] != 4 || len(r.stats) != 4 {
		t.Fatalf("persisted=%d stats=%d", r.persisted[7], len(r.stats))
	}
	for i, st := range r.stats {
		if st.URL != urls[i] || st.BatchID != r.stats[0].BatchID {
			t.Fatalf("stat %d %+v", i, st)
		}
	}
}

func TestList_BatchLimitsAndQuota(t *testing.T) {
	app := shop
	app.DayLimit = 100
	s, chk := newSvc(newRepo(app), quota.New())

	big := make([]string, 11)
	for i := range big {
		big[i] = "u"
	}
	_, err := s.List(context.Background(), domain.ListInput{URLs: big, APIKey: "key"})
	if !perr.IsCode(err, perr.ErrorCodeTooManyRequests) {
		t.Fatalf("want TooManyRequests for oversize batch, got %v", err)
	}

	_, err = s.List(context.Background(), domain.ListInput{APIKey: "key"})
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("want InvalidArgument for empty batch, got %v", err)
	}

	s2, chk2 := newSvc(newRepo(shop), quota.New())
	_, err = s2.List(context.Background(), domain.ListInput{URLs: []string{"a", "b", "c", "d"}, APIKey: "key"})
	if !perr.IsCode(err, perr.ErrorCodeTooManyRequests) {
		t.Fatalf("batch over remaining quota: %v", err)
	}
	if chk.calls.Load() != 0 || chk2.calls.Load() != 0 {
		t.Fatal("rejected batches must not run detection")
	}
}

func TestList_ConcurrentCallersNeverExceedLimit(t *testing.T) {
	app := shop
	app.DayLimit = 20
	r := newRepo(app)
	q := quota.New()
	s, _ := newSvc(r, q)

	var ok atomic.Int32
	var wg sync.WaitGroup
	for range 30 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.List(context.Background(), domain.ListInput{URLs: []string{"a", "b"}, APIKey: "key"}); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()
	if ok.Load() != 10 {
		t.Fatalf("successful batches=%d want 10", ok.Load())
	}
	if c, _, _ := q.Usage(7); c != 20 {
		t.Fatalf("count=%d", c)
	}
}

func TestHistory(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	app := shop
	app.URLCountOnDay = 1
	r := newRepo(app)
	r.history = []domain.StatEntry{
		{URL: "https://a", Verdict: detectdom.Blacklisted(detectdom.ReasonURL), CheckedAt: t0},
		{URL: "https://b", Verdict: detectdom.Verdict{Confidence: 0.1, Reason: detectdom.ReasonClean}, CheckedAt: t0.Add(time.Minute)},
	}
	s, _ := newSvc(r, quota.New())

	h, err := s.History(context.Background(), domain.HistoryInput{Token: "key", StartDT: "2026-03-01"})
	if err != nil {
		t.Fatal(err)
	}
	if h.AppName != "shop" || h.AllURLs != 2 || h.PhishingURLs != 1 || h.DayLimit != 3 || h.DayLimitRemaining != 2 {
		t.Fatalf("history %+v", h)
	}
	if h.HistoryURLs[1] != "https://b" || h.HistoryResults[0].Reason != detectdom.ReasonURL || !h.HistoryTS[1].Equal(t0.Add(time.Minute)) {
		t.Fatalf("history lists %+v", h)
	}
	if r.bounds[0] == nil || !r.bounds[0].Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) || r.bounds[1] != nil {
		t.Fatalf("bounds %v", r.bounds)
	}

	if _, err := s.One(context.Background(), domain.OneInput{URL: "x", APIKey: "key"}); err != nil {
		t.Fatal(err)
	}
	h, _ = s.History(context.Background(), domain.HistoryInput{Token: "key"})
	if h.DayLimitRemaining != 1 {
		t.Fatalf("remaining should follow the live counter, got %d", h.DayLimitRemaining)
	}
}

func TestHistory_Errors(t *testing.T) {
	s, _ := newSvc(newRepo(shop), quota.New())
	_, err := s.History(context.Background(), domain.HistoryInput{Token: "key", EndDT: "yesterday"})
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("bad date: %v", err)
	}
	_, err = s.History(context.Background(), domain.HistoryInput{Token: "nope"})
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("unknown token: %v", err)
	}

	empty, err := s.History(context.Background(), domain.HistoryInput{Token: "key"})
	if err != nil || empty.HistoryURLs == nil || empty.HistoryTS == nil || empty.HistoryResults == nil {
		t.Fatalf("empty history should carry empty lists: %+v err=%v", empty, err)
	}
}

func TestNew_Guards(t *testing.T) {
	b := repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return newRepo() })
	kit.MustPanic(t, func() { New(nil, b, &echoChecker{}, quota.New(), Config{}) })
	kit.MustPanic(t, func() { New(fakeDB{}, nil, &echoChecker{}, quota.New(), Config{}) })
	kit.MustPanic(t, func() { New(fakeDB{}, b, nil, quota.New(), Config{}) })

	s := New(fakeDB{}, b, &echoChecker{}, quota.New(), Config{})
	if s.cfg.MaxBatch != 10 || s.cfg.Parallel != 4 || s.cfg.DefaultDayLimit != 1000 {
		t.Fatalf("defaults %+v", s.cfg)
	}
}
