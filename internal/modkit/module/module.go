// Package module defines the minimal contract for a modkit module
package module

import (
	phttp "phishguard/internal/platform/net/http"
)

// Module mirrors modkit.Module so port helpers avoid an import cycle
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
