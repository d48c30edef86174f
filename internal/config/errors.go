package config

import "errors"

// Error variables for configuration loading.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrNotePrefixEmpty    = errors.New("note_prefix cannot be empty")
	ErrRequestInterval    = errors.New("invalid request_interval")
	ErrCredentialsMissing = errors.New("habitica credentials missing (set user_id and api_key, HABITICA_USER_ID and HABITICA_API_KEY, or run configure)")
)
