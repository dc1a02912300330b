package domain

import (
	"time"

	detectdom "phishguard/internal/services/detect/domain"
)

// App is a registered API consumer
type App struct {
	ID            int64
	Name          string
	Token         string
	DayLimit      int64
	URLCountOnDay int64
	// UsageEpoch counts persisted resets of URLCountOnDay
	UsageEpoch int64
}

// StatEntry is one recorded check
type StatEntry struct {
	URL       string
	Verdict   detectdom.Verdict
	AppID     int64
	BatchID   string
	CheckedAt time.Time
}
