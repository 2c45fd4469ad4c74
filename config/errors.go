package config

import "errors"

var (
	// ErrMissingSecret indicates a required secret is absent from the environment.
	ErrMissingSecret = errors.New("missing required secret")

	// ErrInvalidTable indicates the category table failed validation.
	ErrInvalidTable = errors.New("invalid category table")

	// ErrInvalidConfig indicates the run configuration failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)
