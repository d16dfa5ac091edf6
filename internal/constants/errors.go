package constants

import "errors"

// Configuration errors.
var (
	ErrNoInstanceConfigured = errors.New("no instance configured, use 'popit config set instance_name <name>' or --instance")
	ErrUnknownConfigKey     = errors.New("unknown configuration key")
)

// Validation errors.
var (
	ErrInvalidKeyValue     = errors.New("expected key=value")
	ErrInvalidOutputFormat = errors.New("invalid output format, expected table, json or yaml")
	ErrBodyConflict        = errors.New("use only one of --data, --file and --set")
	ErrBodyNotObject       = errors.New("request body must be a JSON or YAML object")
)

// Operation errors.
var (
	ErrBatchFailed = errors.New("one or more operations failed")
)
