// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

// Package config loads service configuration from a YAML file with
// command-line flag overrides.
package config

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Defaults applied when neither file nor flags set a value.
const (
	DefaultLogFormat   = "json"
	DefaultMetricsAddr = "127.0.0.1:9100"
	DefaultEngine      = "postgres"
	DefaultQuery       = "SELECT password, email FROM users WHERE username = @a"
)

// Config is the full service configuration.
type Config struct {
	Log struct {
		Format string `koanf:"format"`
	} `koanf:"log"`

	Database struct {
		URL string `koanf:"url"`

		// Engine identifies the backing-store engine used for credential
		// lookups. An engine no executor is registered for leaves the
		// service up but refusing credential checks.
		Engine string `koanf:"engine"`
	} `koanf:"database"`

	Auth struct {
		// Query is the lookup template with named placeholders @a
		// (account), @p (password), @n (nick), @i (network address).
		Query string `koanf:"query"`

		// DisableRegistrationReason, when non-empty, blocks self-service
		// registration and grouping with this message.
		DisableRegistrationReason string `koanf:"disable_registration_reason"`

		// DisableEmailReason, when non-empty, blocks email self-service
		// with this message.
		DisableEmailReason string `koanf:"disable_email_reason"`
	} `koanf:"auth"`

	Metrics struct {
		Addr string `koanf:"addr"`
	} `koanf:"metrics"`
}

// Load reads configuration from path (optional) and overlays values from
// flags (optional). Flag names use dotted config keys ("database.url").
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "load flags").
				Wrap(err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills unset values.
func (c *Config) applyDefaults() {
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = DefaultMetricsAddr
	}
	if c.Database.Engine == "" {
		c.Database.Engine = DefaultEngine
	}
	if c.Auth.Query == "" {
		c.Auth.Query = DefaultQuery
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("database.url is required")
	}
	return nil
}
