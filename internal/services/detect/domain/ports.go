package domain

import (
	"context"

	"phishguard/internal/core/blacklist"
	"phishguard/internal/core/resolver"
)

// CheckerPort runs the detection cascade for one URL
type CheckerPort interface {
	Check(ctx context.Context, url string) Verdict
}

// SnapshotPort hands out the current blacklist generation
type SnapshotPort interface {
	Current() *blacklist.Snapshot
}

// ScorerPort returns a phishing probability in [0,1]
type ScorerPort interface {
	Score(url string) float64
}

// Ports are dependencies injected into the detect module
type Ports struct {
	Snapshots SnapshotPort      // required
	Scorer    ScorerPort        // required
	Resolver  resolver.Resolver // optional; built from config when nil
}
