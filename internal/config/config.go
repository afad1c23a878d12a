// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package config provides centralized configuration management for loghaven.
// It supports deterministic precedence (flags > env > config file > defaults)
// using Viper, and fail-fast validation to prevent silent misconfiguration.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/elastic/loghaven/internal/partition"
	"github.com/elastic/loghaven/internal/pgstore"
	"github.com/elastic/loghaven/internal/server"
)

// Config holds all application configuration.
type Config struct {
	DBUrl              string              `mapstructure:"db_url" yaml:"db_url"`
	RootTableName      string              `mapstructure:"root_table_name" yaml:"root_table_name"`
	AutoRestart        bool                `mapstructure:"auto_restart" yaml:"auto_restart"`
	UseVarsMsg         bool                `mapstructure:"use_vars_msg" yaml:"use_vars_msg"`
	StatementCacheSize int                 `mapstructure:"statement_cache_size" yaml:"statement_cache_size"`
	Partitions         []PartitionSpec     `mapstructure:"partitions" yaml:"partitions"`
	PostgresTLS        pgstore.TLSSettings `mapstructure:"postgres_tls" yaml:"postgres_tls"`
	HTTP               HTTPSettings        `mapstructure:"http_settings" yaml:"http_settings"`
}

// PartitionSpec is one node of the partition chain as configured. Kind
// selects which of the remaining fields apply.
type PartitionSpec struct {
	Kind         string `mapstructure:"kind" yaml:"kind"`                             // root or timerange
	Table        string `mapstructure:"table" yaml:"table,omitempty"`                 // root only
	Schema       string `mapstructure:"schema" yaml:"schema,omitempty"`               // root only
	NameTemplate string `mapstructure:"name_template" yaml:"name_template,omitempty"` // timerange only
	Interval     string `mapstructure:"interval" yaml:"interval,omitempty"`           // timerange only
}

// HTTPSettings configures the query API listener.
type HTTPSettings struct {
	ListenAddress string             `mapstructure:"listen_address" yaml:"listen_address"`
	UseTLS        bool               `mapstructure:"use_tls" yaml:"use_tls"`
	TLSCert       string             `mapstructure:"tls_cert" yaml:"tls_cert,omitempty"`
	TLSKey        string             `mapstructure:"tls_key" yaml:"tls_key,omitempty"`
	ClientAuth    ClientAuthSettings `mapstructure:"tls_client_auth" yaml:"tls_client_auth"`
}

// ClientAuthSettings configures client-certificate authentication.
type ClientAuthSettings struct {
	Mode         string `mapstructure:"mode" yaml:"mode"`
	TrustedCerts string `mapstructure:"trusted_certs" yaml:"trusted_certs,omitempty"`
}

// Default configuration values.
const (
	DefaultRootTableName      = "logs"
	DefaultStatementCacheSize = 3
	DefaultListenAddress      = "127.0.0.1:8080"
)

// ContextKey is used to store config in context.
type ContextKey struct{}

// FromContext retrieves Config from context.
func FromContext(ctx context.Context) (Config, bool) {
	cfg, ok := ctx.Value(ContextKey{}).(Config)
	return cfg, ok
}

// WithContext stores Config in context.
func WithContext(ctx context.Context, cfg Config) context.Context {
	return context.WithValue(ctx, ContextKey{}, cfg)
}

// Load builds a Config using Viper with precedence: flags > env > config
// file > defaults. configFile may be empty, in which case the default search
// paths are tried and a missing file is not an error.
func Load(cmd *cobra.Command, configFile string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LOGHAVEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("loghaven")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/loghaven")
		v.AddConfigPath("/etc/loghaven")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if err := bindFlagsRecursive(v, cmd); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers default values with Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("db_url", "")
	v.SetDefault("root_table_name", DefaultRootTableName)
	v.SetDefault("auto_restart", false)
	v.SetDefault("use_vars_msg", false)
	v.SetDefault("statement_cache_size", DefaultStatementCacheSize)
	v.SetDefault("http_settings.listen_address", DefaultListenAddress)
	v.SetDefault("http_settings.use_tls", false)
	v.SetDefault("http_settings.tls_client_auth.mode", string(server.ClientAuthOff))
}

// bindFlagsRecursive binds flags from cmd and all parents so Viper sees them.
func bindFlagsRecursive(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}
	if err := bindFlagSet(v, cmd.Flags()); err != nil {
		return err
	}
	if err := bindFlagSet(v, cmd.PersistentFlags()); err != nil {
		return err
	}
	return bindFlagsRecursive(v, cmd.Parent())
}

// bindFlagSet binds flags to Viper keys using explicit mappings to nested keys.
func bindFlagSet(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	flagToKey := map[string]string{
		"db-url":               "db_url",
		"table":                "root_table_name",
		"auto-restart":         "auto_restart",
		"use-vars-msg":         "use_vars_msg",
		"statement-cache-size": "statement_cache_size",
		"listen":               "http_settings.listen_address",
	}

	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := flagToKey[f.Name]
		if !ok {
			key = strings.ReplaceAll(f.Name, "-", "_")
		}
		_ = v.BindPFlag(key, f)
	})
	return nil
}

// Validate enforces correctness and fails fast on invalid configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DBUrl) == "" {
		return fmt.Errorf("db_url is required")
	}
	if strings.TrimSpace(c.RootTableName) == "" {
		return fmt.Errorf("root_table_name is required")
	}
	if c.StatementCacheSize <= 0 {
		return fmt.Errorf("statement_cache_size must be > 0")
	}
	if err := c.validatePartitions(); err != nil {
		return err
	}
	if strings.TrimSpace(c.HTTP.ListenAddress) == "" {
		return fmt.Errorf("http_settings.listen_address is required")
	}
	if c.HTTP.UseTLS && (c.HTTP.TLSCert == "" || c.HTTP.TLSKey == "") {
		return fmt.Errorf("http_settings.use_tls requires tls_cert and tls_key")
	}
	mode := server.ClientAuthMode(c.HTTP.ClientAuth.Mode)
	if !mode.Valid() {
		return fmt.Errorf("invalid tls_client_auth.mode %q", c.HTTP.ClientAuth.Mode)
	}
	if (mode == server.ClientAuthOptional || mode == server.ClientAuthRequired) &&
		c.HTTP.ClientAuth.TrustedCerts == "" {
		return fmt.Errorf("tls_client_auth.mode %q requires trusted_certs", mode)
	}
	return nil
}

func (c Config) validatePartitions() error {
	for i, spec := range c.Partitions {
		switch spec.Kind {
		case "root":
			if i != 0 {
				return fmt.Errorf("partitions[%d]: root must be the first entry", i)
			}
		case "timerange":
			if i == 0 {
				return fmt.Errorf("partitions[0]: the chain must start with a root")
			}
			if !partition.Truncate(spec.Interval).Valid() {
				return fmt.Errorf("partitions[%d]: invalid interval %q", i, spec.Interval)
			}
			if spec.NameTemplate == "" {
				return fmt.Errorf("partitions[%d]: name_template is required", i)
			}
		default:
			return fmt.Errorf("partitions[%d]: invalid kind %q", i, spec.Kind)
		}
	}
	return nil
}

// Strategies builds the partition chain. With no partitions configured the
// chain is the root table with monthly children named <table>_%Y_%m.
func (c Config) Strategies() []partition.Strategy {
	if len(c.Partitions) == 0 {
		return []partition.Strategy{
			partition.DefaultRoot(c.RootTableName),
			&partition.TimeRange{
				NameTemplate: c.RootTableName + "_%Y_%m",
				Interval:     partition.Month,
			},
		}
	}

	chain := make([]partition.Strategy, 0, len(c.Partitions))
	for _, spec := range c.Partitions {
		switch spec.Kind {
		case "root":
			root := partition.DefaultRoot(spec.Table)
			if spec.Schema != "" {
				root.Schema = spec.Schema
			}
			chain = append(chain, root)
		case "timerange":
			chain = append(chain, &partition.TimeRange{
				NameTemplate: spec.NameTemplate,
				Interval:     partition.Truncate(spec.Interval),
			})
		}
	}
	return chain
}

// DSN returns the database connection string with the configured TLS
// options applied.
func (c Config) DSN() string {
	return pgstore.ApplyTLS(c.DBUrl, &c.PostgresTLS)
}

// TLSOptions maps the HTTP settings onto the listener's TLS setup. Returns
// nil when TLS is disabled.
func (c Config) TLSOptions() *server.TLSOptions {
	if !c.HTTP.UseTLS {
		return nil
	}
	return &server.TLSOptions{
		CertFile:     c.HTTP.TLSCert,
		KeyFile:      c.HTTP.TLSKey,
		ClientAuth:   server.ClientAuthMode(c.HTTP.ClientAuth.Mode),
		TrustedCerts: c.HTTP.ClientAuth.TrustedCerts,
	}
}

// Dump renders the effective configuration as YAML.
func (c Config) Dump() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
