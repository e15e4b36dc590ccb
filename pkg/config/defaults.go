package config

import "time"

// Server defaults.
const (
	DefaultServerHost         = "127.0.0.1"
	DefaultServerPort         = 8080
	DefaultServerReadTimeout  = 10 * time.Second
	DefaultServerWriteTimeout = 10 * time.Second
	DefaultServerIdleTimeout  = 60 * time.Second
	DefaultMaxBodyBytes       = 1 << 20 // 1 MiB.
)

// Engine defaults.
const (
	DefaultMaxCoordinates = 1 << 20
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Telemetry defaults.
const (
	DefaultOTLPEndpoint       = ""
	DefaultSampleRatio        = 0.0
	DefaultPrometheus         = true
	DefaultShutdownTimeoutSec = 5
)
