package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var validRegions = map[string]bool{
	"na1": true, "euw1": true, "eun1": true, "kr": true, "br1": true,
	"jp1": true, "ru": true, "oc1": true, "tr1": true, "la1": true, "la2": true,
}

type RedisConfig struct {
	Addr               string        `mapstructure:"addr"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	DB                 int           `mapstructure:"db"`
	PoolSizeMultiplier int           `mapstructure:"pool_size_multiplier"`
	MinIdleConns       int           `mapstructure:"min_idle_conns"`
	DialTimeout        time.Duration `mapstructure:"dial_timeout"`
	DedupTTL           time.Duration `mapstructure:"dedup_ttl"`
}

type EventsConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type BackfillConfig struct {
	Schedule  string `mapstructure:"schedule"`
	BatchSize int    `mapstructure:"batch_size"`
}

type CircuitBreakerConfig struct {
	FailureThreshold float64       `mapstructure:"failure_threshold"`
	Window           time.Duration `mapstructure:"window"`
	CooldownPeriod   time.Duration `mapstructure:"cooldown_period"`
	MinSamples       int           `mapstructure:"min_samples"`
}

type TracingConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	Endpoint         string  `mapstructure:"endpoint"`
	Environment      string  `mapstructure:"environment"`
	SamplingStrategy string  `mapstructure:"sampling_strategy"`
	SamplingRate     float64 `mapstructure:"sampling_rate"`
}

type ObservabilityConfig struct {
	MetricsPort int           `mapstructure:"metrics_port"`
	Tracing     TracingConfig `mapstructure:"tracing"`
}

type Config struct {
	ApiKey                     string               `mapstructure:"api_key"`
	StoreURL                   string               `mapstructure:"store_url"`
	Regions                    []string             `mapstructure:"regions"`
	AppLimitPerSecond          int                  `mapstructure:"app_limit_per_second"`
	AppLimitPerTwoMinutes      int                  `mapstructure:"app_limit_per_two_minutes"`
	MaxConcurrentRequests      int                  `mapstructure:"max_concurrent_requests"`
	RetryDelayMs               int                  `mapstructure:"retry_delay_ms"`
	MaxRetries                 int                  `mapstructure:"max_retries"`
	QueueSizeLimit             int                  `mapstructure:"queue_size_limit"`
	BatchSize                  int                  `mapstructure:"batch_size"`
	HealthCheckIntervalSeconds int                  `mapstructure:"health_check_interval_seconds"`
	StateSaveIntervalSeconds   int                  `mapstructure:"state_save_interval_seconds"`
	LogLevel                   string               `mapstructure:"log_level"`
	LogFormat                  string               `mapstructure:"log_format"`
	Redis                      RedisConfig          `mapstructure:"redis"`
	Events                     EventsConfig         `mapstructure:"events"`
	Backfill                   BackfillConfig       `mapstructure:"backfill"`
	CircuitBreaker             CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Observability              ObservabilityConfig  `mapstructure:"observability"`
}

func defaultConfig() *Config {
	return &Config{
		StoreURL:                   "./data/crawler.db",
		Regions:                    []string{"na1"},
		AppLimitPerSecond:          20,
		AppLimitPerTwoMinutes:      100,
		MaxConcurrentRequests:      10,
		RetryDelayMs:               1000,
		MaxRetries:                 3,
		QueueSizeLimit:             100000,
		BatchSize:                  20,
		HealthCheckIntervalSeconds: 60,
		StateSaveIntervalSeconds:   30,
		LogLevel:                   "info",
		LogFormat:                  "json",
		Redis: RedisConfig{
			PoolSizeMultiplier: 4,
			MinIdleConns:       1,
			DialTimeout:        5 * time.Second,
			DedupTTL:           24 * time.Hour,
		},
		Backfill: BackfillConfig{
			BatchSize: 200,
		},
		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold: 0.5,
			Window:           1 * time.Minute,
			CooldownPeriod:   30 * time.Second,
			MinSamples:       10,
		},
		Observability: ObservabilityConfig{
			MetricsPort: 9090,
			Tracing:     TracingConfig{Enabled: false},
		},
	}
}

// Load reads configuration from a YAML file plus environment overrides
// (dotted keys become underscored env vars, e.g. app_limit_per_second).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := defaultConfig()
	v.SetDefault("store_url", def.StoreURL)
	v.SetDefault("regions", def.Regions)
	v.SetDefault("app_limit_per_second", def.AppLimitPerSecond)
	v.SetDefault("app_limit_per_two_minutes", def.AppLimitPerTwoMinutes)
	v.SetDefault("max_concurrent_requests", def.MaxConcurrentRequests)
	v.SetDefault("retry_delay_ms", def.RetryDelayMs)
	v.SetDefault("max_retries", def.MaxRetries)
	v.SetDefault("queue_size_limit", def.QueueSizeLimit)
	v.SetDefault("batch_size", def.BatchSize)
	v.SetDefault("health_check_interval_seconds", def.HealthCheckIntervalSeconds)
	v.SetDefault("state_save_interval_seconds", def.StateSaveIntervalSeconds)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)

	v.SetDefault("redis.pool_size_multiplier", def.Redis.PoolSizeMultiplier)
	v.SetDefault("redis.min_idle_conns", def.Redis.MinIdleConns)
	v.SetDefault("redis.dial_timeout", def.Redis.DialTimeout)
	v.SetDefault("redis.dedup_ttl", def.Redis.DedupTTL)

	v.SetDefault("backfill.batch_size", def.Backfill.BatchSize)

	v.SetDefault("circuit_breaker.failure_threshold", def.CircuitBreaker.FailureThreshold)
	v.SetDefault("circuit_breaker.window", def.CircuitBreaker.Window)
	v.SetDefault("circuit_breaker.cooldown_period", def.CircuitBreaker.CooldownPeriod)
	v.SetDefault("circuit_breaker.min_samples", def.CircuitBreaker.MinSamples)

	v.SetDefault("observability.metrics_port", def.Observability.MetricsPort)
	v.SetDefault("observability.tracing.enabled", def.Observability.Tracing.Enabled)

	// Keys without a default are bound explicitly so that an environment
	// variable alone is enough to set them.
	for _, key := range []string{
		"api_key",
		"redis.addr", "redis.username", "redis.password", "redis.db",
		"events.url", "events.subject_prefix",
		"backfill.schedule",
		"observability.tracing.endpoint", "observability.tracing.environment",
		"observability.tracing.sampling_strategy", "observability.tracing.sampling_rate",
	} {
		_ = v.BindEnv(key)
	}

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks config constraints and returns an error on invalid settings.
func Validate(cfg *Config) error {
	if cfg.ApiKey == "" {
		return fmt.Errorf("api_key is required")
	}
	if !strings.HasPrefix(cfg.ApiKey, "RGAPI-") {
		return fmt.Errorf("api_key must start with RGAPI-")
	}
	if cfg.StoreURL == "" {
		return fmt.Errorf("store_url is required")
	}
	if len(cfg.Regions) == 0 {
		return fmt.Errorf("regions must be non-empty")
	}
	for _, r := range cfg.Regions {
		if !validRegions[r] {
			return fmt.Errorf("unknown region %q", r)
		}
	}
	if cfg.AppLimitPerSecond <= 0 {
		return fmt.Errorf("app_limit_per_second must be > 0")
	}
	if cfg.AppLimitPerTwoMinutes <= 0 {
		return fmt.Errorf("app_limit_per_two_minutes must be > 0")
	}
	if cfg.MaxConcurrentRequests <= 0 {
		return fmt.Errorf("max_concurrent_requests must be > 0")
	}
	if cfg.QueueSizeLimit <= 0 {
		return fmt.Errorf("queue_size_limit must be > 0")
	}
	if cfg.Observability.MetricsPort <= 0 || cfg.Observability.MetricsPort > 65535 {
		return fmt.Errorf("observability.metrics_port must be 1..65535")
	}
	return nil
}
