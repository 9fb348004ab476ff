// Package config provides configuration management for valuecore nodes
package config

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/najoast/valuecore/network"
	"github.com/najoast/valuecore/value"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// String returns the string representation of Environment
func (e Environment) String() string {
	return string(e)
}

// IsValid checks if the environment is valid
func (e Environment) IsValid() bool {
	switch e {
	case EnvDevelopment, EnvTesting, EnvStaging, EnvProduction:
		return true
	default:
		return false
	}
}

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
	LogLevelFatal LogLevel = "fatal"
)

// String returns the string representation of LogLevel
func (l LogLevel) String() string {
	return string(l)
}

// IsValid checks if the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, LogLevelFatal:
		return true
	default:
		return false
	}
}

// Log formats
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Name matching modes
const (
	NameMatchingLenient = "lenient"
	NameMatchingExact   = "exact"
)

// Config represents the complete node configuration
type Config struct {
	// Application configuration
	App AppConfig `yaml:"app" json:"app"`

	// Logging configuration
	Log LogConfig `yaml:"log" json:"log"`

	// Value engine configuration
	Value ValueConfig `yaml:"value" json:"value"`

	// Network envelope configuration
	Network NetworkConfig `yaml:"network" json:"network"`

	// Monitoring configuration
	Monitor MonitorConfig `yaml:"monitor" json:"monitor"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Version     string            `yaml:"version" json:"version"`
	Environment Environment       `yaml:"environment" json:"environment"`
	Debug       bool              `yaml:"debug" json:"debug"`
	Metadata    map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	// Log level
	Level LogLevel `yaml:"level" json:"level"`

	// Log format (json, text)
	Format string `yaml:"format" json:"format"`

	// Output destination (stdout, stderr, file path)
	Output string `yaml:"output" json:"output"`

	// Log rotation for file outputs
	Rotation LogRotationConfig `yaml:"rotation" json:"rotation"`

	// Fields added to every entry
	Fields map[string]interface{} `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// LogRotationConfig contains log rotation settings
type LogRotationConfig struct {
	// Enable log rotation
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Maximum file size in MB
	MaxSize int `yaml:"max_size" json:"max_size"`

	// Maximum number of old files to retain
	MaxBackups int `yaml:"max_backups" json:"max_backups"`

	// Maximum age in days
	MaxAge int `yaml:"max_age" json:"max_age"`

	// Compress old files
	Compress bool `yaml:"compress" json:"compress"`
}

// ValueConfig controls how the value registry encodes payloads and matches
// declared type names.
type ValueConfig struct {
	// Payload codec (cbor, json)
	PayloadCodec string `yaml:"payload_codec" json:"payload_codec"`

	// Name matching for lazy access (lenient, exact)
	NameMatching string `yaml:"name_matching" json:"name_matching"`

	// Register the built-in primitive, list and map types
	RegisterDefaults bool `yaml:"register_defaults" json:"register_defaults"`

	// Seal the registry once startup registration is done
	SealOnStart bool `yaml:"seal_on_start" json:"seal_on_start"`
}

// NetworkConfig contains message envelope limits
type NetworkConfig struct {
	// Largest accepted message, header included
	MaxMessageSize int `yaml:"max_message_size" json:"max_message_size"`
}

// MonitorConfig contains monitoring configuration
type MonitorConfig struct {
	// Enable the prometheus collector
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Metric namespace
	Namespace string `yaml:"namespace" json:"namespace"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "valuecore-node",
			Version:     "1.0.0",
			Environment: EnvDevelopment,
			Debug:       true,
		},
		Log: LogConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
			Output: "stdout",
			Rotation: LogRotationConfig{
				MaxSize:    100,
				MaxBackups: 3,
				MaxAge:     7,
				Compress:   true,
			},
		},
		Value: ValueConfig{
			PayloadCodec:     "cbor",
			NameMatching:     NameMatchingLenient,
			RegisterDefaults: true,
			SealOnStart:      true,
		},
		Network: NetworkConfig{
			MaxMessageSize: 1024 * 1024,
		},
		Monitor: MonitorConfig{
			Enabled:   true,
			Namespace: "valuecore",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return ErrInvalidAppName
	}
	if !c.App.Environment.IsValid() {
		return ErrInvalidEnvironment
	}

	if !c.Log.Level.IsValid() {
		return ErrInvalidLogLevel
	}
	switch c.Log.Format {
	case LogFormatJSON, LogFormatText:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Log.Format)
	}

	switch c.Value.PayloadCodec {
	case "cbor", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPayloadCodec, c.Value.PayloadCodec)
	}
	switch c.Value.NameMatching {
	case NameMatchingLenient, NameMatchingExact:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidNameMatching, c.Value.NameMatching)
	}

	if c.Network.MaxMessageSize < network.MessageHeaderSize {
		return fmt.Errorf("%w: %d is below the %d byte message header",
			ErrInvalidMaxMessageSize, c.Network.MaxMessageSize, network.MessageHeaderSize)
	}

	return nil
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// IsDebugEnabled returns true if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.App.Environment == EnvDevelopment
}

// RegistryOptions maps the value section onto registry options. A nil
// logger or observer keeps the registry defaults.
func (c *Config) RegistryOptions(logger *zap.Logger, observer value.Observer) (value.RegistryOptions, error) {
	opts := value.DefaultRegistryOptions()
	if logger != nil {
		opts.Logger = logger
	}
	if observer != nil {
		opts.Observer = observer
	}

	codec, err := value.CodecByName(c.Value.PayloadCodec)
	if err != nil {
		return opts, fmt.Errorf("%w: %v", ErrInvalidPayloadCodec, err)
	}
	opts.Codec = codec

	switch c.Value.NameMatching {
	case "", NameMatchingLenient:
		opts.NameMatching = value.LenientNames
	case NameMatchingExact:
		opts.NameMatching = value.ExactNames
	default:
		return opts, fmt.Errorf("%w: %q", ErrInvalidNameMatching, c.Value.NameMatching)
	}

	return opts, nil
}

// NewRegistry builds a registry from the value section. Sealing is left to
// the caller so application types can still be registered.
func (c *Config) NewRegistry(logger *zap.Logger, observer value.Observer) (*value.Registry, error) {
	opts, err := c.RegistryOptions(logger, observer)
	if err != nil {
		return nil, err
	}
	if c.Value.RegisterDefaults {
		return value.NewRegistryWithDefaults(opts), nil
	}
	return value.NewRegistry(opts), nil
}
