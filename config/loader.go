// Package config provides configuration loading and parsing functionality
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFormat represents the configuration file format
type ConfigFormat string

const (
	FormatYAML ConfigFormat = "yaml"
	FormatJSON ConfigFormat = "json"
)

// DefaultEnvPrefix prefixes every environment override
const DefaultEnvPrefix = "VALUECORE"

// Loader handles configuration loading from files, readers and the
// environment. File values are decoded over the defaults, so omitted keys
// keep their default value.
type Loader struct {
	// Configuration search paths
	searchPaths []string

	// Environment variable prefix
	envPrefix string

	// Dotenv files consulted after the process environment
	envFiles []string

	// Default configuration
	defaultConfig *Config
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		searchPaths: []string{
			".",
			"./config",
			"./configs",
			"/etc/valuecore",
			os.Getenv("HOME") + "/.valuecore",
		},
		envPrefix:     DefaultEnvPrefix,
		defaultConfig: DefaultConfig(),
	}
}

// SetSearchPaths sets the configuration file search paths
func (l *Loader) SetSearchPaths(paths []string) *Loader {
	l.searchPaths = paths
	return l
}

// SetEnvPrefix sets the environment variable prefix
func (l *Loader) SetEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// SetEnvFiles sets dotenv files read for overrides. Variables already set
// in the process environment take precedence; missing files are skipped.
func (l *Loader) SetEnvFiles(files ...string) *Loader {
	l.envFiles = files
	return l
}

// SetDefaultConfig sets the default configuration
func (l *Loader) SetDefaultConfig(config *Config) *Loader {
	l.defaultConfig = config
	return l
}

// Load loads configuration from filename, or from the defaults when
// filename is empty, then applies environment overrides and validates.
func (l *Loader) Load(filename string) (*Config, error) {
	if filename == "" {
		return l.finish(l.base())
	}
	return l.LoadFromFile(filename)
}

// LoadFromFile loads configuration from a specific file
func (l *Loader) LoadFromFile(filename string) (*Config, error) {
	format, err := formatFromPath(filename)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	config, err := l.parseConfig(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	return l.finish(config)
}

// LoadFromReader loads configuration from an io.Reader. Environment
// overrides are not applied.
func (l *Loader) LoadFromReader(reader io.Reader, format ConfigFormat) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration data: %w", err)
	}

	config, err := l.parseConfig(data, format)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// AutoLoad searches the search paths for a configuration file and loads
// it. When none is found the defaults are used.
func (l *Loader) AutoLoad() (*Config, error) {
	configFile, err := l.findConfigFile()
	if errors.Is(err, ErrConfigFileNotFound) {
		return l.finish(l.base())
	}
	if err != nil {
		return nil, err
	}
	return l.LoadFromFile(configFile)
}

func (l *Loader) finish(config *Config) (*Config, error) {
	if err := l.loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// base returns a copy of the default configuration that parsing may
// modify freely.
func (l *Loader) base() *Config {
	src := l.defaultConfig
	if src == nil {
		src = DefaultConfig()
	}
	c := *src
	c.App.Metadata = copyMap(src.App.Metadata)
	c.Log.Fields = copyMap(src.Log.Fields)
	return &c
}

func copyMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// findConfigFile searches for configuration files in search paths
func (l *Loader) findConfigFile() (string, error) {
	filenames := []string{
		"valuecore.yaml", "valuecore.yml",
		"config.yaml", "config.yml",
		"valuecore.json", "config.json",
	}

	for _, searchPath := range l.searchPaths {
		for _, filename := range filenames {
			fullPath := filepath.Join(searchPath, filename)
			if _, err := os.Stat(fullPath); err == nil {
				return fullPath, nil
			}
		}
	}

	return "", ErrConfigFileNotFound
}

func formatFromPath(filename string) (ConfigFormat, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// parseConfig decodes data over a copy of the defaults
func (l *Loader) parseConfig(data []byte, format ConfigFormat) (*Config, error) {
	config := l.base()

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return config, nil
}

// loadFromEnv loads configuration overrides from environment variables
func (l *Loader) loadFromEnv(config *Config) error {
	dotenv, err := l.readEnvFiles()
	if err != nil {
		return err
	}
	env := func(key string) string {
		name := l.envPrefix + "_" + key
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return dotenv[name]
	}

	// App configuration
	if val := env("APP_NAME"); val != "" {
		config.App.Name = val
	}
	if val := env("APP_VERSION"); val != "" {
		config.App.Version = val
	}
	if val := env("APP_ENVIRONMENT"); val != "" {
		config.App.Environment = Environment(val)
	}
	if val := env("APP_DEBUG"); val != "" {
		config.App.Debug = strings.ToLower(val) == "true"
	}

	// Log configuration
	if val := env("LOG_LEVEL"); val != "" {
		config.Log.Level = LogLevel(val)
	}
	if val := env("LOG_FORMAT"); val != "" {
		config.Log.Format = val
	}
	if val := env("LOG_OUTPUT"); val != "" {
		config.Log.Output = val
	}

	// Value configuration
	if val := env("VALUE_PAYLOAD_CODEC"); val != "" {
		config.Value.PayloadCodec = val
	}
	if val := env("VALUE_NAME_MATCHING"); val != "" {
		config.Value.NameMatching = val
	}
	if val := env("VALUE_REGISTER_DEFAULTS"); val != "" {
		config.Value.RegisterDefaults = strings.ToLower(val) == "true"
	}
	if val := env("VALUE_SEAL_ON_START"); val != "" {
		config.Value.SealOnStart = strings.ToLower(val) == "true"
	}

	// Network configuration
	if val := env("NETWORK_MAX_MESSAGE_SIZE"); val != "" {
		size, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%w: %s_NETWORK_MAX_MESSAGE_SIZE=%q", ErrEnvironmentVar, l.envPrefix, val)
		}
		config.Network.MaxMessageSize = size
	}

	// Monitor configuration
	if val := env("MONITOR_ENABLED"); val != "" {
		config.Monitor.Enabled = strings.ToLower(val) == "true"
	}
	if val := env("MONITOR_NAMESPACE"); val != "" {
		config.Monitor.Namespace = val
	}

	return nil
}

func (l *Loader) readEnvFiles() (map[string]string, error) {
	var files []string
	for _, f := range l.envFiles {
		if _, err := os.Stat(f); err == nil {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return nil, nil
	}

	vars, err := godotenv.Read(files...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvironmentVar, err)
	}
	return vars, nil
}
