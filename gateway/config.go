/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

package gateway

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/ethosview/dashgate/config"
	"github.com/ethosview/dashgate/internal/admission"
)

const cfgDefaultKeyPrefix = "gateway"

const (
	cfgKeyBaseURL              = "baseURL"
	cfgKeyMaxConcurrency       = "maxConcurrency"
	cfgKeyMaxAttempts          = "maxAttempts"
	cfgKeyRateLimitMinDelay    = "rateLimit.minDelay"
	cfgKeyRateLimitMaxDelay    = "rateLimit.maxDelay"
	cfgKeyRateLimitJitterMin   = "rateLimit.jitterMin"
	cfgKeyRateLimitJitterMax   = "rateLimit.jitterMax"
	cfgKeyLowPriorityPrefixes  = "lowPriority.prefixes"
	cfgKeyLowPriorityPatterns  = "lowPriority.patterns"
	cfgKeyLowPriorityJitterMin = "lowPriority.jitterMin"
	cfgKeyLowPriorityJitterMax = "lowPriority.jitterMax"
	cfgKeyMaxBodySize          = "maxBodySize"
)

// Default values.
const (
	DefaultBaseURL              = "http://localhost:8080"
	DefaultMaxConcurrency       = admission.DefaultCapacity
	DefaultMaxAttempts          = 3
	DefaultRateLimitMinDelay    = 900 * time.Millisecond
	DefaultRateLimitMaxDelay    = 3 * time.Second
	DefaultRateLimitJitterMin   = 200 * time.Millisecond
	DefaultRateLimitJitterMax   = 600 * time.Millisecond
	DefaultLowPriorityJitterMin = 50 * time.Millisecond
	DefaultLowPriorityJitterMax = 150 * time.Millisecond
	DefaultMaxBodySize          = 10 * 1024 * 1024
)

// DefaultLowPriorityPrefixes are paths of resources that get a pre-dispatch jitter.
var DefaultLowPriorityPrefixes = []string{"/alerts", "/api/v1/ws/status", "/metrics", "/api/v1/esg/scores"}

// RateLimitConfig configures the reaction to 429 responses.
type RateLimitConfig struct {
	MinDelay  time.Duration `mapstructure:"minDelay" yaml:"minDelay" json:"minDelay"`
	MaxDelay  time.Duration `mapstructure:"maxDelay" yaml:"maxDelay" json:"maxDelay"`
	JitterMin time.Duration `mapstructure:"jitterMin" yaml:"jitterMin" json:"jitterMin"`
	JitterMax time.Duration `mapstructure:"jitterMax" yaml:"jitterMax" json:"jitterMax"`
}

// Policy returns the RateLimitPolicy described by the config.
func (c RateLimitConfig) Policy() RateLimitPolicy {
	return RateLimitPolicy{MinDelay: c.MinDelay, MaxDelay: c.MaxDelay, JitterMin: c.JitterMin, JitterMax: c.JitterMax}
}

// LowPriorityConfig configures resources that are delayed by a small random jitter before dispatch.
// A path is low-priority when it starts with one of Prefixes or matches one of Patterns.
// Patterns are globs where "*" matches any sequence of characters and "?" matches one character.
type LowPriorityConfig struct {
	Prefixes  []string      `mapstructure:"prefixes" yaml:"prefixes" json:"prefixes"`
	Patterns  []string      `mapstructure:"patterns" yaml:"patterns,omitempty" json:"patterns,omitempty"`
	JitterMin time.Duration `mapstructure:"jitterMin" yaml:"jitterMin" json:"jitterMin"`
	JitterMax time.Duration `mapstructure:"jitterMax" yaml:"jitterMax" json:"jitterMax"`
}

// Config represents a set of configuration parameters for the gateway.
type Config struct {
	// BaseURL is prepended to every requested path.
	BaseURL string `mapstructure:"baseURL" yaml:"baseURL" json:"baseURL"`

	// MaxConcurrency is the number of upstream operations allowed to run at once.
	MaxConcurrency int `mapstructure:"maxConcurrency" yaml:"maxConcurrency" json:"maxConcurrency"`

	// MaxAttempts is the total number of attempts per upstream operation. Only 429 responses are retried.
	MaxAttempts int `mapstructure:"maxAttempts" yaml:"maxAttempts" json:"maxAttempts"`

	RateLimit   RateLimitConfig   `mapstructure:"rateLimit" yaml:"rateLimit" json:"rateLimit"`
	LowPriority LowPriorityConfig `mapstructure:"lowPriority" yaml:"lowPriority" json:"lowPriority"`

	// MaxBodySize limits the size of a successful response body.
	MaxBodySize config.ByteSize `mapstructure:"maxBodySize" yaml:"maxBodySize" json:"maxBodySize"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return NewConfigWithKeyPrefix(cfgDefaultKeyPrefix)
}

// NewConfigWithKeyPrefix creates a new instance of the Config with the given key prefix.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		keyPrefix:      cfgDefaultKeyPrefix,
		BaseURL:        DefaultBaseURL,
		MaxConcurrency: DefaultMaxConcurrency,
		MaxAttempts:    DefaultMaxAttempts,
		RateLimit: RateLimitConfig{
			MinDelay:  DefaultRateLimitMinDelay,
			MaxDelay:  DefaultRateLimitMaxDelay,
			JitterMin: DefaultRateLimitJitterMin,
			JitterMax: DefaultRateLimitJitterMax,
		},
		LowPriority: LowPriorityConfig{
			Prefixes:  append([]string(nil), DefaultLowPriorityPrefixes...),
			JitterMin: DefaultLowPriorityJitterMin,
			JitterMax: DefaultLowPriorityJitterMax,
		},
		MaxBodySize: DefaultMaxBodySize,
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the gateway in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyBaseURL, DefaultBaseURL)
	dp.SetDefault(cfgKeyMaxConcurrency, DefaultMaxConcurrency)
	dp.SetDefault(cfgKeyMaxAttempts, DefaultMaxAttempts)
	dp.SetDefault(cfgKeyRateLimitMinDelay, DefaultRateLimitMinDelay.String())
	dp.SetDefault(cfgKeyRateLimitMaxDelay, DefaultRateLimitMaxDelay.String())
	dp.SetDefault(cfgKeyRateLimitJitterMin, DefaultRateLimitJitterMin.String())
	dp.SetDefault(cfgKeyRateLimitJitterMax, DefaultRateLimitJitterMax.String())
	dp.SetDefault(cfgKeyLowPriorityPrefixes, DefaultLowPriorityPrefixes)
	dp.SetDefault(cfgKeyLowPriorityJitterMin, DefaultLowPriorityJitterMin.String())
	dp.SetDefault(cfgKeyLowPriorityJitterMax, DefaultLowPriorityJitterMax.String())
	dp.SetDefault(cfgKeyMaxBodySize, config.ByteSize(DefaultMaxBodySize).String())
}

// Set sets gateway configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.BaseURL, err = dp.GetString(cfgKeyBaseURL); err != nil {
		return err
	}
	if err = validateBaseURL(c.BaseURL); err != nil {
		return dp.WrapKeyErr(cfgKeyBaseURL, err)
	}

	if c.MaxConcurrency, err = dp.GetInt(cfgKeyMaxConcurrency); err != nil {
		return err
	}
	if c.MaxConcurrency <= 0 {
		return dp.WrapKeyErr(cfgKeyMaxConcurrency, errors.New("must be positive"))
	}

	if c.MaxAttempts, err = dp.GetInt(cfgKeyMaxAttempts); err != nil {
		return err
	}
	if c.MaxAttempts <= 0 {
		return dp.WrapKeyErr(cfgKeyMaxAttempts, errors.New("must be positive"))
	}

	if err = c.setRateLimit(dp); err != nil {
		return err
	}
	if err = c.setLowPriority(dp); err != nil {
		return err
	}

	if c.MaxBodySize, err = dp.GetByteSize(cfgKeyMaxBodySize); err != nil {
		return err
	}
	return nil
}

func (c *Config) setRateLimit(dp config.DataProvider) error {
	var err error
	if c.RateLimit.MinDelay, err = getNonNegativeDuration(dp, cfgKeyRateLimitMinDelay); err != nil {
		return err
	}
	if c.RateLimit.MaxDelay, err = getNonNegativeDuration(dp, cfgKeyRateLimitMaxDelay); err != nil {
		return err
	}
	if c.RateLimit.JitterMin, err = getNonNegativeDuration(dp, cfgKeyRateLimitJitterMin); err != nil {
		return err
	}
	if c.RateLimit.JitterMax, err = getNonNegativeDuration(dp, cfgKeyRateLimitJitterMax); err != nil {
		return err
	}
	if c.RateLimit.JitterMax < c.RateLimit.JitterMin {
		return dp.WrapKeyErr(cfgKeyRateLimitJitterMax, fmt.Errorf("must be >= %s", cfgKeyRateLimitJitterMin))
	}
	return nil
}

func (c *Config) setLowPriority(dp config.DataProvider) error {
	var err error
	if c.LowPriority.Prefixes, err = dp.GetStringSlice(cfgKeyLowPriorityPrefixes); err != nil {
		return err
	}
	if c.LowPriority.Patterns, err = dp.GetStringSlice(cfgKeyLowPriorityPatterns); err != nil {
		return err
	}
	if c.LowPriority.JitterMin, err = getNonNegativeDuration(dp, cfgKeyLowPriorityJitterMin); err != nil {
		return err
	}
	if c.LowPriority.JitterMax, err = getNonNegativeDuration(dp, cfgKeyLowPriorityJitterMax); err != nil {
		return err
	}
	if c.LowPriority.JitterMax < c.LowPriority.JitterMin {
		return dp.WrapKeyErr(cfgKeyLowPriorityJitterMax, fmt.Errorf("must be >= %s", cfgKeyLowPriorityJitterMin))
	}
	return nil
}

func getNonNegativeDuration(dp config.DataProvider, key string) (time.Duration, error) {
	d, err := dp.GetDuration(key)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, dp.WrapKeyErr(key, errors.New("must not be negative"))
	}
	return d, nil
}

func validateBaseURL(baseURL string) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an absolute http(s) URL, got %q", baseURL)
	}
	return nil
}
