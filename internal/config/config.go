// Package config loads sysk's runtime configuration: CLI flags bound
// through pflag, an optional YAML file, and environment variables,
// merged by viper with flags taking precedence.
package config

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the merged configuration for a sysk invocation.
type Config struct {
	// LogPath is the rotating log file path; empty means stderr only.
	LogPath string `mapstructure:"log_path" yaml:"log_path"`
	// MetricsAddr is the address the Prometheus handler listens on,
	// e.g. ":9090". When both this and `serve --addr` are empty,
	// `sysk serve` listens on ":9090".
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	// InodeRatio controls Mkfs's default inode-table sizing when a
	// caller doesn't pass an explicit inode count.
	InodeRatio int `mapstructure:"inode_ratio" yaml:"inode_ratio"`
}

// Defaults returns the built-in configuration before any flag, file or
// environment override is applied.
func Defaults() Config {
	return Config{
		LogPath:     "",
		MetricsAddr: "",
		InodeRatio:  4,
	}
}

// Load merges defaults, an optional config file and environment
// variables (prefixed SYSK_) with the already-parsed flags in fs,
// flags taking precedence over everything else.
func Load(fs *pflag.FlagSet, configFile string) (Config, error) {
	v := viper.New()
	d := Defaults()
	v.SetDefault("log_path", d.LogPath)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("inode_ratio", d.InodeRatio)

	v.SetEnvPrefix("sysk")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WriteDefault marshals the built-in configuration to YAML and writes it
// to path, so a first-time user has a starting point instead of an
// empty file. The output carries no comments.
func WriteDefault(path string) error {
	b, err := yaml.Marshal(Defaults())
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
