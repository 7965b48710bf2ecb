// Copyright 2025 Blink Labs Software
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
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/blinklabs-io/crowdsale"
	"github.com/blinklabs-io/crowdsale/bonus"
)

type ctxKey string

const configContextKey ctxKey = "crowdsale.config"

const (
	DefaultShutdownTimeout = "30s"
	DefaultRateLimit       = 120
	envPrefix              = "CROWDSALE"
)

var (
	ErrOwnerRequired  = errors.New("sale owner address is required")
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidAmount  = errors.New("invalid amount")
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

// SaleConfig holds the crowdsale parameters. Amounts are decimal strings.
type SaleConfig struct {
	OpeningTime uint64 `yaml:"openingTime" split_words:"true"`
	ClosingTime uint64 `yaml:"closingTime" split_words:"true"`
	Rate        string `yaml:"rate"`
	SoftCap     string `yaml:"softCap"     split_words:"true"`
	HardCap     string `yaml:"hardCap"     split_words:"true"`
}

type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
	// Stdout writes spans to stdout instead of an OTLP endpoint. The OTLP
	// endpoint is configured with the OTEL_EXPORTER_OTLP_* env vars.
	Stdout bool `yaml:"stdout"`
}

type Config struct {
	Owner           string        `yaml:"owner"`
	Admins          []string      `yaml:"admins"`
	Sale            SaleConfig    `yaml:"sale"`
	Bonus           []bonus.Step  `yaml:"bonus"           ignored:"true"`
	DatabasePath    string        `yaml:"databasePath"    split_words:"true"`
	BindAddr        string        `yaml:"bindAddr"        split_words:"true"`
	ApiPort         uint          `yaml:"apiPort"         split_words:"true"`
	MetricsPort     uint          `yaml:"metricsPort"     split_words:"true"`
	RateLimit       int           `yaml:"rateLimit"       split_words:"true"`
	ShutdownTimeout string        `yaml:"shutdownTimeout" split_words:"true"`
	Tracing         TracingConfig `yaml:"tracing"`
	Debug           bool          `yaml:"debug"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		DatabasePath:    ".crowdsale",
		BindAddr:        "127.0.0.1",
		ApiPort:         8080,
		MetricsPort:     12799,
		RateLimit:       DefaultRateLimit,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// LoadConfig builds the config from defaults, an optional YAML file and the
// environment, in that order
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	if configFile == "" {
		// Check for config file in this path: ~/.crowdsale/crowdsale.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".crowdsale", "crowdsale.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		if configFile == "" {
			systemPath := "/etc/crowdsale/crowdsale.yaml"
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
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted
func (c *Config) Validate() error {
	if c.Owner == "" {
		return ErrOwnerRequired
	}
	if _, err := c.OwnerAddress(); err != nil {
		return err
	}
	if _, err := c.AdminAddresses(); err != nil {
		return err
	}
	if _, err := c.ShutdownTimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.BonusSchedule(); err != nil {
		return err
	}
	return nil
}

func parseAddress(v string) (common.Address, error) {
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, v)
	}
	return common.HexToAddress(v), nil
}

func parseAmount(name string, v string) (*big.Int, error) {
	ret, ok := new(big.Int).SetString(v, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", ErrInvalidAmount, name, v)
	}
	return ret, nil
}

func (c *Config) OwnerAddress() (common.Address, error) {
	return parseAddress(c.Owner)
}

func (c *Config) AdminAddresses() ([]common.Address, error) {
	ret := make([]common.Address, 0, len(c.Admins))
	for _, tmpAdmin := range c.Admins {
		addr, err := parseAddress(tmpAdmin)
		if err != nil {
			return nil, err
		}
		ret = append(ret, addr)
	}
	return ret, nil
}

// SaleParams converts the sale section into crowdsale parameters. Range
// checks are left to crowdsale.New.
func (c *Config) SaleParams() (crowdsale.Params, error) {
	var ret crowdsale.Params
	var err error
	ret.OpeningTime = c.Sale.OpeningTime
	ret.ClosingTime = c.Sale.ClosingTime
	if ret.Rate, err = parseAmount("rate", c.Sale.Rate); err != nil {
		return ret, err
	}
	if ret.SoftCap, err = parseAmount("softCap", c.Sale.SoftCap); err != nil {
		return ret, err
	}
	if ret.HardCap, err = parseAmount("hardCap", c.Sale.HardCap); err != nil {
		return ret, err
	}
	return ret, nil
}

// BonusSchedule returns the configured schedule, or the default table when
// none is configured
func (c *Config) BonusSchedule() (*bonus.Schedule, error) {
	if len(c.Bonus) == 0 {
		return bonus.DefaultSchedule(), nil
	}
	schedule, err := bonus.NewSchedule(c.Bonus)
	if err != nil {
		return nil, fmt.Errorf("invalid bonus schedule: %w", err)
	}
	return schedule, nil
}

func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	if c.ShutdownTimeout == "" {
		return 30 * time.Second, nil
	}
	ret, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	return ret, nil
}

func (c *Config) ApiListenAddress() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.ApiPort)
}

func (c *Config) MetricsListenAddress() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.MetricsPort)
}
