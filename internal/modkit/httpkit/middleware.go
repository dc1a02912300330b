package httpkit

import (
	"net/http"
	"time"

	"phishguard/internal/platform/config"
	"phishguard/internal/platform/net/middleware"
)

// CommonStack returns the per API middleware slice built from CORE_API_ style config
func CommonStack(cfg config.Conf) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.AccessLogZerolog(middleware.AccessLogOptions{
			Slow: cfg.MayDuration("SLOW_REQUEST", 500*time.Millisecond),
		}),
		middleware.CORS(middleware.CORSOptions{
			AllowedOrigins: cfg.MayCSV("CORS_ORIGINS", []string{"*"}),
			MaxAge:         300,
		}),
		middleware.RateLimit(middleware.RateLimitOptions{
			RPS:   cfg.MayFloat64("RATE_LIMIT_RPS", 0),
			Burst: cfg.MayInt("RATE_LIMIT_BURST", 0),
		}),
	}
}

// BaseStack is the root middleware every server installs before any route
func BaseStack() []func(http.Handler) http.Handler {
	return append(middleware.Defaults(), middleware.Heartbeat("/ping"))
}
