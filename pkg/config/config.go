// Package config provides configuration loading and validation for segtree.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidPort           = errors.New("invalid server port")
	ErrInvalidTimeout        = errors.New("server timeouts must be positive")
	ErrInvalidBodyLimit      = errors.New("max body bytes must be positive")
	ErrInvalidMaxCoordinates = errors.New("max coordinates must be at least 2")
	ErrTooManyCoordinates    = errors.New("engine coordinates exceed max coordinates")
	ErrInvalidCoordinate     = errors.New("engine coordinates must be finite")
	ErrInvalidLogFormat      = errors.New("log format must be text or json")
	ErrInvalidSampleRatio    = errors.New("sample ratio must be within [0, 1]")
)

const (
	maxPort           = 65535
	minCoordinates    = 2
	envPrefix         = "SEGTREE"
	logFormatText     = "text"
	logFormatJSON     = "json"
	defaultConfigName = "segtree"
)

// Config holds all configuration for the segtree binary.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	Port         int           `mapstructure:"port"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// EngineConfig holds engine configuration.
type EngineConfig struct {
	// Coordinates seed the engine created by `segtree serve`. Empty means
	// the engine is created later through the API.
	Coordinates []float64 `mapstructure:"coordinates"`
	// MaxCoordinates bounds every coordinate set accepted from clients.
	MaxCoordinates int `mapstructure:"max_coordinates"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// JSON reports whether logs are emitted as JSON.
func (l LoggingConfig) JSON() bool {
	return strings.EqualFold(l.Format, logFormatJSON)
}

// TelemetryConfig holds OpenTelemetry export configuration.
type TelemetryConfig struct {
	OTLPEndpoint       string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders        string  `mapstructure:"otlp_headers"`
	Environment        string  `mapstructure:"environment"`
	OTLPInsecure       bool    `mapstructure:"otlp_insecure"`
	Prometheus         bool    `mapstructure:"prometheus"`
	DebugTrace         bool    `mapstructure:"debug_trace"`
	SampleRatio        float64 `mapstructure:"sample_ratio"`
	ShutdownTimeoutSec int     `mapstructure:"shutdown_timeout_sec"`
}

// LoadConfig loads configuration from file and environment variables.
// An empty configPath searches ./segtree.yaml, ./config/segtree.yaml and
// /etc/segtree/segtree.yaml; a missing file is not an error in that case.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(defaultConfigName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/segtree")
	}

	// SEGTREE_SERVER_PORT overrides server.port.
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("server.host", DefaultServerHost)
	viperCfg.SetDefault("server.port", DefaultServerPort)
	viperCfg.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	viperCfg.SetDefault("server.write_timeout", DefaultServerWriteTimeout)
	viperCfg.SetDefault("server.idle_timeout", DefaultServerIdleTimeout)
	viperCfg.SetDefault("server.max_body_bytes", DefaultMaxBodyBytes)

	viperCfg.SetDefault("engine.coordinates", []float64{})
	viperCfg.SetDefault("engine.max_coordinates", DefaultMaxCoordinates)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultOTLPEndpoint)
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.prometheus", DefaultPrometheus)
	viperCfg.SetDefault("telemetry.debug_trace", false)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultSampleRatio)
	viperCfg.SetDefault("telemetry.shutdown_timeout_sec", DefaultShutdownTimeoutSec)
}

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, config.Server.Port)
	}

	if config.Server.ReadTimeout <= 0 || config.Server.WriteTimeout <= 0 || config.Server.IdleTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if config.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBodyLimit, config.Server.MaxBodyBytes)
	}

	if config.Engine.MaxCoordinates < minCoordinates {
		return fmt.Errorf("%w: %d", ErrInvalidMaxCoordinates, config.Engine.MaxCoordinates)
	}

	if len(config.Engine.Coordinates) > config.Engine.MaxCoordinates {
		return fmt.Errorf("%w: %d > %d", ErrTooManyCoordinates,
			len(config.Engine.Coordinates), config.Engine.MaxCoordinates)
	}

	for i, c := range config.Engine.Coordinates {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%w: coordinate %d is %v", ErrInvalidCoordinate, i, c)
		}
	}

	format := strings.ToLower(config.Logging.Format)
	if format != logFormatText && format != logFormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	ratio := config.Telemetry.SampleRatio
	if math.IsNaN(ratio) || ratio < 0 || ratio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, ratio)
	}

	return nil
}
