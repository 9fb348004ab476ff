// Package config provides error definitions for configuration management
package config

import "errors"

// Configuration validation errors
var (
	ErrInvalidAppName        = errors.New("invalid application name")
	ErrInvalidEnvironment    = errors.New("invalid environment")
	ErrInvalidLogLevel       = errors.New("invalid log level")
	ErrInvalidLogFormat      = errors.New("invalid log format")
	ErrInvalidPayloadCodec   = errors.New("invalid payload codec")
	ErrInvalidNameMatching   = errors.New("invalid name matching mode")
	ErrInvalidMaxMessageSize = errors.New("invalid max message size")
)

// Configuration loading errors
var (
	ErrConfigFileNotFound = errors.New("configuration file not found")
	ErrUnsupportedFormat  = errors.New("unsupported configuration format")
	ErrEnvironmentVar     = errors.New("environment variable error")
)
