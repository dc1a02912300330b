package domain

import (
	"context"

	"phishguard/internal/core/quota"
	detectdom "phishguard/internal/services/detect/domain"
)

// ServicePort defines the service contract for urls
type ServicePort interface {
	One(ctx context.Context, in OneInput) (detectdom.Verdict, error)
	List(ctx context.Context, in ListInput) ([]detectdom.Verdict, error)
	History(ctx context.Context, in HistoryInput) (History, error)
}

// QuotaPort is the in process daily counter
type QuotaPort interface {
	Observe(appID, limit, countToday, usageEpoch int64)
	TryReserve(appID, n int64) (*quota.Reservation, error)
	Commit(r *quota.Reservation) int64
	Release(r *quota.Reservation)
	Usage(appID int64) (count, limit int64, ok bool)
}

// Ports are dependencies injected into the urls module
type Ports struct {
	Checker detectdom.CheckerPort // required
	Quota   QuotaPort             // required
}
