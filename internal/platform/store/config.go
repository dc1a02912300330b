package store

import "time"

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG PGConfig
}

// PGConfig configures postgres connectivity, tracing and boot retries
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// ConnectRetries bounds the boot ping loop; 0 means 20
	ConnectRetries int
	// PingTimeout bounds each boot ping; 0 means 3s
	PingTimeout time.Duration
}
