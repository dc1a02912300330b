// Package domain defines the jobs and ports of the refresh scheduler
package domain

import "context"

// Job is one unit of periodic work. Jobs never depend on each other
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// BlacklistPort swaps in a freshly fetched blacklist generation
type BlacklistPort interface {
	Refresh(ctx context.Context) error
}

// CacheReloadPort republishes the on disk feeds when another process changed them
type CacheReloadPort interface {
	ReloadFromCache() (bool, error)
}

// QuotaPort zeroes the in process counters
type QuotaPort interface {
	ResetAll()
}

// UsageResetPort zeroes persisted per app counters and reports rows touched
type UsageResetPort interface {
	ResetUsage(ctx context.Context) (int64, error)
}

// SchedulerPort drives the jobs
type SchedulerPort interface {
	Start(ctx context.Context) error
	Stop()
	RunOnce(ctx context.Context) error
}

// Ports are dependencies injected into the refresh module
type Ports struct {
	Blacklist BlacklistPort   // required
	Quota     QuotaPort       // required
	Usage     UsageResetPort  // optional; nil skips the persisted reset
	Cache     CacheReloadPort // optional; followed when the cycle runs elsewhere
}
