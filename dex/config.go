// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"errors"
	"fmt"
	"strings"

	"github.com/luxfi/geth/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/luxfi/ammcore/fixedpoint"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds the pool manager settings.
type Config struct {
	// Address the pool manager holds assets under.
	Address string `json:"address" mapstructure:"address"`
	// TickCacheSize is the number of tick to sqrt ratio conversions kept.
	TickCacheSize int `json:"tickCacheSize" mapstructure:"tick-cache-size"`
	// MetricsNamespace prefixes every metric name.
	MetricsNamespace string `json:"metricsNamespace" mapstructure:"metrics-namespace"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		Address:          PoolManagerAddress,
		TickCacheSize:    fixedpoint.DefaultTickCacheSize,
		MetricsNamespace: "ammcore",
	}
}

// Verify checks the settings.
func (c Config) Verify() error {
	if !common.IsHexAddress(c.Address) {
		return fmt.Errorf("%w: address %q", ErrInvalidConfig, c.Address)
	}
	if c.TickCacheSize <= 0 {
		return fmt.Errorf("%w: tick cache size %d", ErrInvalidConfig, c.TickCacheSize)
	}
	return nil
}

// LoadConfig merges the config file at cfgFile, AMMCORE_ environment
// variables and flags over the defaults. An empty cfgFile looks for an
// optional config file in the working directory.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix("AMMCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("address", def.Address)
	v.SetDefault("tick-cache-size", def.TickCacheSize)
	v.SetDefault("metrics-namespace", def.MetricsNamespace)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("ammcore")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Address:          v.GetString("address"),
		TickCacheSize:    v.GetInt("tick-cache-size"),
		MetricsNamespace: v.GetString("metrics-namespace"),
	}
	if err := cfg.Verify(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
