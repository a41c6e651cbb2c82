package store

import "time"

// Config aggregates per backend configuration
type Config struct {
	PG PGConfig
	KV KVConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// Guard/boot knobs:
	ConnectRetries int           // default 20
	PingTimeout    time.Duration // default 3s
}

// KVConfig configures the in-process ttl cache
type KVConfig struct {
	Enabled bool

	// SweepEvery bounds how long expired entries can linger before the
	// background sweeper reclaims them. Zero means the default (1 minute);
	// expired entries are never returned by Get regardless
	SweepEvery time.Duration
}
