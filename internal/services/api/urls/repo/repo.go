// Package repo provides postgres access for apps and link stats
package repo

import (
	"context"
	_ "embed"
	"time"

	"phishguard/internal/modkit/repokit"
	perr "phishguard/internal/platform/errors"
	"phishguard/internal/platform/store"
	"phishguard/internal/services/api/urls/domain"
	detectdom "phishguard/internal/services/detect/domain"
)

//go:embed schema.sql
var schemaSQL string

// Repo defines the repository contract for urls
type Repo interface {
	LookupApp(ctx context.Context, apiKey string) (domain.App, error)
	PersistUsage(ctx context.Context, appID, count, usageEpoch int64) error
	AppendStats(ctx context.Context, xs []domain.StatEntry) error
	ResetUsage(ctx context.Context) (int64, error)
	History(ctx context.Context, appID int64, start, end *time.Time) ([]domain.StatEntry, error)
}

type (
	// PG implements the Repo interface using Postgres
	PG struct{}

	// queries holds the database query methods
	queries struct{ q repokit.Queryer }
)

// NewPG creates a new Postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Postgres queryer to the Repo implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// Migrate applies the embedded schema; every statement is idempotent
func Migrate(ctx context.Context, q repokit.Queryer) error {
	if _, err := q.Exec(ctx, schemaSQL); err != nil {
		return perr.FromPostgres(err, "apply urls schema")
	}
	return nil
}

// AppCount reports how many apps are provisioned
func AppCount(ctx context.Context, q repokit.Queryer) (int64, error) {
	n, err := store.Scalar[int64](ctx, q, sqlAppCount)
	if err != nil {
		return 0, perr.FromPostgres(err, "count apps")
	}
	return n, nil
}

const (
	sqlAppCount  = `select count(*) from apps`
	sqlLookupApp = `
select id, app_name, token, day_limit, url_count_on_day, usage_epoch
from apps
where token = $1
`
	sqlPersistUsage = `
update apps set url_count_on_day = least($2::integer, day_limit)
where id = $1 and usage_epoch = $3
`
	sqlAppendStats = `
insert into link_stats (url, accessed_at, is_phishing, confidence_level, reason, app_id, batch_id)
select u, ts, p, c, r, $6::bigint, nullif($7, '')::uuid
from unnest($1::text[], $2::timestamptz[], $3::boolean[], $4::double precision[], $5::text[]) as t(u, ts, p, c, r)
`
	sqlResetUsage = `
update apps set url_count_on_day = 0, usage_epoch = usage_epoch + 1
`
	sqlHistory = `
select url, is_phishing, confidence_level, reason, accessed_at, coalesce(batch_id::text, '')
from link_stats
where app_id = $1
and ($2::timestamptz is null or accessed_at >= $2)
and ($3::timestamptz is null or accessed_at <= $3)
order by accessed_at, id
`
)

func (r *queries) LookupApp(ctx context.Context, apiKey string) (domain.App, error) {
	app, err := store.One(ctx, r.q, func(row store.Row) (domain.App, error) {
		var a domain.App
		err := row.Scan(&a.ID, &a.Name, &a.Token, &a.DayLimit, &a.URLCountOnDay, &a.UsageEpoch)
		return a, err
	}, sqlLookupApp, apiKey)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.App{}, err
		}
		return domain.App{}, perr.FromPostgres(err, "lookup app")
	}
	return app, nil
}

// PersistUsage writes count only while the row is still on usageEpoch; a
// reset in between makes it NotFound
func (r *queries) PersistUsage(ctx context.Context, appID, count, usageEpoch int64) error {
	if err := store.ExecOne(ctx, r.q, sqlPersistUsage, appID, count, usageEpoch); err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return err
		}
		return perr.FromPostgres(err, "persist usage")
	}
	return nil
}

// AppendStats inserts every entry in one statement. Entries must share app and batch
func (r *queries) AppendStats(ctx context.Context, xs []domain.StatEntry) error {
	if len(xs) == 0 {
		return nil
	}
	n := len(xs)
	urls := make([]string, n)
	ts := make([]time.Time, n)
	phish := make([]bool, n)
	conf := make([]float64, n)
	reasons := make([]string, n)
	for i, x := range xs {
		urls[i] = x.URL
		ts[i] = x.CheckedAt.UTC()
		phish[i] = x.Verdict.IsPhishing
		conf[i] = x.Verdict.Confidence
		reasons[i] = string(x.Verdict.Reason)
	}
	if _, err := r.q.Exec(ctx, sqlAppendStats, urls, ts, phish, conf, reasons, xs[0].AppID, xs[0].BatchID); err != nil {
		return perr.FromPostgres(err, "append stats")
	}
	return nil
}

// ResetUsage zeroes every app and moves its usage epoch on
func (r *queries) ResetUsage(ctx context.Context) (int64, error) {
	t, err := r.q.Exec(ctx, sqlResetUsage)
	if err != nil {
		return 0, perr.FromPostgres(err, "reset usage")
	}
	return t.RowsAffected(), nil
}

func (r *queries) History(ctx context.Context, appID int64, start, end *time.Time) ([]domain.StatEntry, error) {
	out, err := store.Many(ctx, r.q, func(row store.Row) (domain.StatEntry, error) {
		var (
			e      domain.StatEntry
			reason string
		)
		err := row.Scan(&e.URL, &e.Verdict.IsPhishing, &e.Verdict.Confidence, &reason, &e.CheckedAt, &e.BatchID)
		e.Verdict.Reason = detectdom.Reason(reason)
		e.AppID = appID
		return e, err
	}, sqlHistory, appID, start, end)
	if err != nil {
		return nil, perr.FromPostgres(err, "load history")
	}
	return out, nil
}
