package service

import (
	"context"

	"phishguard/internal/platform/logger"
	"phishguard/internal/services/refresh/domain"
)

// BlacklistJob refreshes the feed sets
type BlacklistJob struct{ Store domain.BlacklistPort }

// Name implements domain.Job
func (BlacklistJob) Name() string { return "blacklist" }

// Run implements domain.Job
func (j BlacklistJob) Run(ctx context.Context) error { return j.Store.Refresh(ctx) }

// CacheReloadJob picks up feeds another process wrote to the cache dir
type CacheReloadJob struct{ Cache domain.CacheReloadPort }

// Name implements domain.Job
func (CacheReloadJob) Name() string { return "blacklist_cache" }

// Run implements domain.Job
func (j CacheReloadJob) Run(context.Context) error {
	_, err := j.Cache.ReloadFromCache()
	return err
}

// QuotaResetJob zeroes counters in memory first, then in storage.
// A storage failure leaves the in memory reset in place. Quota may be nil
// when the job runs outside the serving process
type QuotaResetJob struct {
	Quota domain.QuotaPort
	Usage domain.UsageResetPort
}

// Name implements domain.Job
func (QuotaResetJob) Name() string { return "quota_reset" }

// Run implements domain.Job
func (j QuotaResetJob) Run(ctx context.Context) error {
	if j.Quota != nil {
		j.Quota.ResetAll()
	}
	if j.Usage == nil {
		return nil
	}
	n, err := j.Usage.ResetUsage(ctx)
	if err != nil {
		return err
	}
	logger.C(ctx).Info().Int64("apps", n).Msg("refresh: usage counters reset")
	return nil
}
