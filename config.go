// config.go: Engine configuration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil

import "go.uber.org/zap"

// DefaultVersion is printed by PrintVersion when no version is configured.
const DefaultVersion = "NA"

// Config configures a Flags engine. The zero value is usable.
type Config struct {
	// Version is printed for --version.
	Version string

	// SecretResolvers rewrite the arguments before binding, in order.
	SecretResolvers []SecretResolver

	// Logger receives debug events for every parse stage. Values bound
	// from secrets are never logged.
	Logger *zap.Logger

	// Audit records every bound flag when set. The engine does not close
	// it.
	Audit *AuditLogger
}

// WithDefaults returns a copy of the configuration with defaults applied.
func (c *Config) WithDefaults() *Config {
	config := *c

	if config.Version == "" {
		config.Version = DefaultVersion
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.SecretResolvers != nil {
		config.SecretResolvers = append([]SecretResolver(nil), config.SecretResolvers...)
	}

	return &config
}
