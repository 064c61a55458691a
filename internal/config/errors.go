// Package config provides configuration types and defaults for slidescan.
package config

import "errors"

// Sentinel errors for configuration handling.
var (
	// ErrInvalidAlgorithm indicates an unknown algorithm name was provided.
	ErrInvalidAlgorithm = errors.New("invalid algorithm")

	// ErrSettingsRead indicates the settings file could not be read.
	ErrSettingsRead = errors.New("settings file unreadable")

	// ErrSettingsParse indicates the settings file is not valid YAML.
	ErrSettingsParse = errors.New("settings file malformed")
)
