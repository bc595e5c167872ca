// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/referenda/chaindata"
	"github.com/blinklabs-io/referenda/timeline"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "referenda.config"

const (
	DefaultNetwork          = "polkadot"
	DefaultTrack            = "root"
	DefaultSampleResolution = 1
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type tempConfig struct {
	Config *Config `yaml:"config,omitempty"`
}

type Config struct {
	Network string `yaml:"network"`
	// BlockTime overrides the network's average block time, e.g. "6s"
	BlockTime string `yaml:"blockTime"        split_words:"true"`
	// TotalIssuance is used for support when the input does not carry it.
	// Decimal or 0x hex.
	TotalIssuance string `yaml:"totalIssuance"    split_words:"true"`
	// Track is the preset used when no track file is given
	Track string `yaml:"track"`
	// SampleResolution is the chart sampling interval in minutes
	SampleResolution int  `yaml:"sampleResolution" split_words:"true"`
	ExtendMinutes    int  `yaml:"extendMinutes"    split_words:"true"`
	Tracing          bool `yaml:"tracing"`
}

var globalConfig = &Config{
	Network:          DefaultNetwork,
	Track:            DefaultTrack,
	SampleResolution: DefaultSampleResolution,
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.referenda/referenda.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".referenda", "referenda.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/referenda/referenda.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/referenda/referenda.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		var tempCfg tempConfig
		err = yaml.Unmarshal(buf, &tempCfg)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}

		// If config section exists, use it for main config
		if tempCfg.Config != nil {
			// Overlay config values onto existing defaults
			configBytes, err := yaml.Marshal(tempCfg.Config)
			if err != nil {
				return nil, fmt.Errorf("error re-marshalling config: %w", err)
			}
			err = yaml.Unmarshal(configBytes, globalConfig)
			if err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else {
			err = yaml.Unmarshal(buf, globalConfig)
			if err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}
	}
	// Process environment variables
	err := envconfig.Process("referenda", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := globalConfig.Validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}

// Validate checks that the loaded values are usable
func (c *Config) Validate() error {
	if _, err := c.BlockTimeFunc(); err != nil {
		return err
	}
	if _, err := c.Issuance(); err != nil {
		return err
	}
	if c.SampleResolution < 1 {
		return fmt.Errorf(
			"invalid sampleResolution: %d (must be at least 1)",
			c.SampleResolution,
		)
	}
	if c.ExtendMinutes < 0 {
		return fmt.Errorf(
			"invalid extendMinutes: %d (must not be negative)",
			c.ExtendMinutes,
		)
	}
	return nil
}

// BlockTimeFunc returns the configured block time, falling back to the
// network's average
func (c *Config) BlockTimeFunc() (timeline.BlockTimeFunc, error) {
	if c.BlockTime != "" {
		d, err := time.ParseDuration(c.BlockTime)
		if err != nil {
			return nil, fmt.Errorf("invalid blockTime: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid blockTime: %s (must be positive)", d)
		}
		return timeline.FixedBlockTime(d), nil
	}
	return chaindata.BlockTime(c.Network)
}

// Issuance returns the configured total issuance, or nil when unset
func (c *Config) Issuance() (*big.Int, error) {
	if c.TotalIssuance == "" {
		return nil, nil
	}
	ret, err := chaindata.ParseBalance(c.TotalIssuance)
	if err != nil {
		return nil, fmt.Errorf("invalid totalIssuance: %w", err)
	}
	return ret, nil
}
