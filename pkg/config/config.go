package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "srtalert/pkg/errors"
	"srtalert/pkg/validation"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Stats struct {
		URL       string        `yaml:"url"`
		Publisher string        `yaml:"publisher"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"stats"`

	OBS struct {
		Host           string        `yaml:"host"`
		Port           int           `yaml:"port"`
		Password       string        `yaml:"password"`
		ConnectTimeout time.Duration `yaml:"connect_timeout"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"obs"`

	Overlay struct {
		SceneName  string `yaml:"scene_name"`
		SourceName string `yaml:"source_name"`
	} `yaml:"overlay"`

	Thresholds struct {
		BitrateKbps float64 `yaml:"bitrate_kbps"`
		RTTMillis   float64 `yaml:"rtt_ms"`
	} `yaml:"thresholds"`

	Alert struct {
		Cooldown               time.Duration `yaml:"cooldown"`
		DisplayTime            time.Duration `yaml:"display_time"`
		GracePeriod            time.Duration `yaml:"grace_period"`
		PollInterval           time.Duration `yaml:"poll_interval"`
		RegraceOnStreamRestart bool          `yaml:"regrace_on_stream_restart"`
	} `yaml:"alert"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Monitoring struct {
		Enabled bool   `yaml:"enabled"`
		Address string `yaml:"address"`
	} `yaml:"monitoring"`

	RateLimiting struct {
		Enabled           bool    `yaml:"enabled"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limiting"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		JaegerURL   string  `yaml:"jaeger_url"`
		Environment string  `yaml:"environment"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
		Channel  string `yaml:"channel"`
	} `yaml:"redis"`
}

// Validate checks that configuration values are within acceptable ranges.
// The returned error is a CONFIG_ERROR naming the offending field.
func (c *Config) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"stats.url", c.Stats.URL},
		{"stats.publisher", c.Stats.Publisher},
		{"obs.host", c.OBS.Host},
		{"obs.password", c.OBS.Password},
		{"overlay.source_name", c.Overlay.SourceName},
		{"overlay.scene_name", c.Overlay.SceneName},
	}
	for _, r := range required {
		if err := validation.ValidateNonEmptyString(r.value, r.field); err != nil {
			return apperrors.NewConfigError(r.field, "must not be empty")
		}
	}
	for _, r := range []struct {
		field string
		value string
	}{
		{"overlay.source_name", c.Overlay.SourceName},
		{"overlay.scene_name", c.Overlay.SceneName},
	} {
		if err := validation.ValidateStringLength(r.value, 1, 256, r.field); err != nil {
			return apperrors.NewConfigError(r.field, err.Error())
		}
	}

	// Stats
	if err := validation.ValidateURL(c.Stats.URL); err != nil {
		return apperrors.NewConfigError("stats.url", err.Error())
	}
	if err := validation.ValidatePublisherKey(c.Stats.Publisher); err != nil {
		return apperrors.NewConfigError("stats.publisher", err.Error())
	}
	if c.Stats.Timeout <= 0 {
		return apperrors.NewConfigError("stats.timeout", "must be > 0")
	}

	// OBS
	if err := validation.ValidatePort(c.OBS.Port); err != nil {
		return apperrors.NewConfigError("obs.port", err.Error())
	}
	if c.OBS.ConnectTimeout <= 0 {
		return apperrors.NewConfigError("obs.connect_timeout", "must be > 0")
	}
	if c.OBS.RequestTimeout <= 0 {
		return apperrors.NewConfigError("obs.request_timeout", "must be > 0")
	}

	// Thresholds
	if c.Thresholds.BitrateKbps <= 0 {
		return apperrors.NewConfigError("thresholds.bitrate_kbps", "must be > 0")
	}
	if c.Thresholds.RTTMillis <= 1 {
		return apperrors.NewConfigError("thresholds.rtt_ms", "must be > 1")
	}

	// Alert
	if c.Alert.DisplayTime <= time.Second {
		return apperrors.NewConfigError("alert.display_time", "must be > 1s")
	}
	if c.Alert.Cooldown <= c.Alert.DisplayTime {
		return apperrors.NewConfigError("alert.cooldown", "must be greater than alert.display_time")
	}
	if c.Alert.GracePeriod < 0 {
		return apperrors.NewConfigError("alert.grace_period", "must be >= 0")
	}
	if c.Alert.PollInterval <= 0 {
		return apperrors.NewConfigError("alert.poll_interval", "must be > 0")
	}

	// Logging
	if c.Logging.Level == "" {
		return apperrors.NewConfigError("logging.level", "must not be empty")
	}

	// Monitoring
	if c.Monitoring.Enabled {
		if err := validation.ValidateHostPort(c.Monitoring.Address); err != nil {
			return apperrors.NewConfigError("monitoring.address", err.Error())
		}
	}
	if c.RateLimiting.Enabled {
		if c.RateLimiting.RequestsPerSecond <= 0 {
			return apperrors.NewConfigError("rate_limiting.requests_per_second", "must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.Burst <= 0 {
			return apperrors.NewConfigError("rate_limiting.burst", "must be > 0 when rate limiting is enabled")
		}
	}

	// Tracing
	if c.Tracing.Enabled {
		if err := validation.ValidateURL(c.Tracing.JaegerURL); err != nil {
			return apperrors.NewConfigError("tracing.jaeger_url", err.Error())
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return apperrors.NewConfigError("tracing.sample_rate", "must be within [0, 1]")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if err := validation.ValidateHostPort(c.Redis.Address); err != nil {
			return apperrors.NewConfigError("redis.address", err.Error())
		}
		if c.Redis.PoolSize <= 0 {
			return apperrors.NewConfigError("redis.pool_size", "must be > 0 when redis.enabled=true")
		}
		if c.Redis.Channel == "" {
			return apperrors.NewConfigError("redis.channel", "must not be empty when redis.enabled=true")
		}
	}

	return nil
}

// OBSAddress returns host:port of the obs-websocket server
func (c *Config) OBSAddress() string {
	return fmt.Sprintf("%s:%d", c.OBS.Host, c.OBS.Port)
}

// Load reads configuration from a YAML file, or from a legacy flat JSON
// document when the path ends in .json, applies env overrides and validates.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrCodeConfig,
			fmt.Sprintf("failed to read config file %s", configPath))
	}

	cfg := DefaultConfig()
	if strings.EqualFold(filepath.Ext(configPath), ".json") {
		if err := applyLegacy(data, cfg); err != nil {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrCodeConfig, "failed to unmarshal config yaml")
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults. Connection
// targets, overlay names and thresholds have no defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Stats.Timeout = time.Second

	cfg.OBS.ConnectTimeout = 3 * time.Second
	cfg.OBS.RequestTimeout = 2 * time.Second

	cfg.Alert.GracePeriod = 15 * time.Second
	cfg.Alert.PollInterval = 2 * time.Second
	cfg.Alert.RegraceOnStreamRestart = false

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "console"

	cfg.Monitoring.Enabled = false
	cfg.Monitoring.Address = "127.0.0.1:9109"

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.RequestsPerSecond = 5
	cfg.RateLimiting.Burst = 10

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.Environment = "development"
	cfg.Tracing.SampleRate = 1.0

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.PoolSize = 4
	cfg.Redis.Channel = "srtalert:events"

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("SRTALERT_STATS_URL"); url != "" {
		c.Stats.URL = url
	}
	if host := os.Getenv("SRTALERT_OBS_HOST"); host != "" {
		c.OBS.Host = host
	}
	if password := os.Getenv("SRTALERT_OBS_PASSWORD"); password != "" {
		c.OBS.Password = password
	}
	if level := os.Getenv("SRTALERT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if addr := os.Getenv("SRTALERT_MONITORING_ADDRESS"); addr != "" {
		c.Monitoring.Address = addr
	}
}
