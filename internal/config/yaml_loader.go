// Package config provides configuration management for the OAuth usage analytics service.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// configSearchPaths are the directories searched for YAML configuration files.
var configSearchPaths = []string{"./configs", "../configs", "../../configs"}

// yamlOverlay holds operational settings that may be supplied via YAML files.
type yamlOverlay struct {
	Analytics struct {
		ScanPageSize int    `mapstructure:"scan_page_size"`
		CacheControl string `mapstructure:"cache_control"`
	} `mapstructure:"analytics"`
	Security struct {
		RateLimitRPS int `mapstructure:"rate_limit_rps"`
	} `mapstructure:"security"`
}

// loadYAMLConfig loads operational configuration from YAML files based on the environment.
// It first loads defaults.yaml, then overlays environment-specific configuration
// (local.yaml, nonprod.yaml, or prod.yaml) when present.
func loadYAMLConfig(env Environment) (*yamlOverlay, error) {
	v := newYAMLViper("defaults")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read defaults config: %w", err)
	}

	envConfigFile := envConfigName(env)
	envViper := newYAMLViper(envConfigFile)
	if err := envViper.ReadInConfig(); err != nil {
		// Environment-specific config is optional
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read %s config: %w", envConfigFile, err)
		}
	}

	if err := v.MergeConfigMap(envViper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to merge environment config: %w", err)
	}

	var overlay yamlOverlay
	if err := v.Unmarshal(&overlay); err != nil {
		return nil, fmt.Errorf("failed to decode yaml config: %w", err)
	}

	return &overlay, nil
}

func newYAMLViper(name string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName(name)
	for _, p := range configSearchPaths {
		v.AddConfigPath(p)
	}
	return v
}

func envConfigName(env Environment) string {
	switch env {
	case NonProd:
		return "nonprod"
	case Prod:
		return "prod"
	default:
		return "local"
	}
}

// applyOverlay copies non-zero YAML values over the environment-derived configuration.
func (c *Config) applyOverlay(o *yamlOverlay) {
	if o == nil {
		return
	}
	if o.Analytics.ScanPageSize != 0 {
		c.Analytics.ScanPageSize = o.Analytics.ScanPageSize
	}
	if o.Analytics.CacheControl != "" {
		c.Analytics.CacheControl = o.Analytics.CacheControl
	}
	if o.Security.RateLimitRPS != 0 {
		c.Security.RateLimitRPS = o.Security.RateLimitRPS
	}
}
