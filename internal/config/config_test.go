package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/config"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(*testing.T, *config.Config)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "redis://localhost:6379", cfg.Redis.URL)
				assert.Equal(t, 100, cfg.Analytics.ScanPageSize)
				assert.Equal(t, config.DefaultCacheControl, cfg.Analytics.CacheControl)
				assert.Equal(t, config.Local, cfg.Environment.Environment)
				assert.False(t, cfg.Analytics.SeedEnabled)
				assert.Equal(t, "configs/seed.json", cfg.Analytics.SeedPath)
				assert.Equal(t, []string{"GET", "OPTIONS"}, cfg.Security.AllowedMethods)
			},
		},
		{
			name: "valid_overrides",
			envVars: map[string]string{
				"SERVER_PORT":              "9090",
				"REDIS_URL":                "redis://localhost:6380",
				"ANALYTICS_SCAN_PAGE_SIZE": "250",
				"ANALYTICS_CACHE_CONTROL":  "no-store",
			},
			validate: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "redis://localhost:6380", cfg.Redis.URL)
				assert.Equal(t, 250, cfg.Analytics.ScanPageSize)
				assert.Equal(t, "no-store", cfg.Analytics.CacheControl)
			},
		},
		{
			name: "invalid_port",
			envVars: map[string]string{
				"SERVER_PORT": "99999",
			},
			wantErr: true,
		},
		{
			name: "zero_scan_page_size",
			envVars: map[string]string{
				"ANALYTICS_SCAN_PAGE_SIZE": "0",
			},
			wantErr: true,
		},
		{
			name: "unparseable_duration",
			envVars: map[string]string{
				"SERVER_READ_TIMEOUT": "soon",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)

			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := config.Load()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.validate != nil {
				tt.validate(t, cfg)
			}

			assert.Equal(t, "0.0.0.0", cfg.Server.Host)
			assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
			assert.Equal(t, "info", cfg.Logging.Level)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			Server:    config.ServerConfig{Port: 8080},
			Redis:     config.RedisConfig{URL: "redis://localhost:6379"},
			Analytics: config.AnalyticsConfig{ScanPageSize: 100},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{name: "valid_config", mutate: func(*config.Config) {}},
		{name: "invalid_port_low", mutate: func(c *config.Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "invalid_port_high", mutate: func(c *config.Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "missing_redis_url", mutate: func(c *config.Config) { c.Redis.URL = "" }, wantErr: true},
		{
			name:    "scan_page_size_too_large",
			mutate:  func(c *config.Config) { c.Analytics.ScanPageSize = config.MaxScanPageSize + 1 },
			wantErr: true,
		},
		{name: "negative_rate_limit", mutate: func(c *config.Config) { c.Security.RateLimitRPS = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigServerAddr(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host: "localhost",
			Port: 9090,
		},
	}

	assert.Equal(t, "localhost:9090", cfg.ServerAddr())
}

func TestConfigIsTLSEnabled(t *testing.T) {
	tests := []struct {
		name     string
		server   config.ServerConfig
		expected bool
	}{
		{
			name:     "tls_enabled",
			server:   config.ServerConfig{TLSCert: "/path/to/cert.pem", TLSKey: "/path/to/key.pem"},
			expected: true,
		},
		{name: "tls_disabled_no_cert", server: config.ServerConfig{TLSKey: "/path/to/key.pem"}},
		{name: "tls_disabled_no_key", server: config.ServerConfig{TLSCert: "/path/to/cert.pem"}},
		{name: "tls_disabled_empty", server: config.ServerConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Server: tt.server}
			assert.Equal(t, tt.expected, cfg.IsTLSEnabled())
		})
	}
}

func clearEnv(_ *testing.T) {
	envVars := []string{
		"ENVIRONMENT_ENV",
		"SERVER_PORT", "SERVER_HOST", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT",
		"REDIS_URL", "REDIS_PASSWORD", "REDIS_DB",
		"ANALYTICS_SCAN_PAGE_SIZE", "ANALYTICS_CACHE_CONTROL", "ANALYTICS_LOAD_YAML",
		"SECURITY_RATE_LIMIT_RPS", "SECURITY_ALLOWED_ORIGINS",
		"LOGGING_LEVEL", "LOGGING_FORMAT",
	}

	for _, env := range envVars {
		os.Unsetenv(env)
	}
}
