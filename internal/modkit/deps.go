// Package modkit provides module wiring and core deps
package modkit

import (
	"phishguard/internal/modkit/repokit"
	"phishguard/internal/platform/config"
	"phishguard/internal/platform/logger"
)

// Deps holds core dependencies passed to modules
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
}
