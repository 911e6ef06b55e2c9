package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrInvalidConfig    = goerr.New("invalid configuration")
	ErrMissingOption    = goerr.New("required option is missing")
	ErrDuplicateModelID = goerr.New("duplicate model ID")
	ErrMissingName      = goerr.New("name is required")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	ModelIDKey    = "model_id"
	ModelIndexKey = "model_index"
	BackendKey    = "backend"
)
