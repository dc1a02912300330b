package module

import (
	"time"

	"phishguard/internal/platform/config"
)

// Options holds configuration settings for the urls module
type Options struct {
	MaxBatch        int
	Parallel        int
	DefaultDayLimit int
	// StatementTimeout bounds each statement of the stats transaction
	StatementTimeout time.Duration
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	uc := cfg.Prefix("CORE_URLS_")
	return Options{
		MaxBatch:        uc.MayInt("MAX_BATCH", 10),
		Parallel:        uc.MayInt("BATCH_PARALLEL", 4),
		DefaultDayLimit: uc.MayInt("DEFAULT_DAY_LIMIT", 1000),

		StatementTimeout: uc.MayDuration("STATEMENT_TIMEOUT", 2*time.Second),
	}
}
