package config

import (
	"time"

	"github.com/Proton-105/spark-client/pkg/logger"
	"github.com/Proton-105/spark-client/pkg/redis"
)

// Config holds runtime configuration for the spark client and CLI.
type Config struct {
	AppEnv   string `mapstructure:"-"`
	Language string `mapstructure:"language" validate:"omitempty,len=2"`

	API     APIConfig     `mapstructure:"api"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Persist PersistConfig `mapstructure:"persist"`
	Redis   redis.Config  `mapstructure:"redis"`
	Log     logger.Config `mapstructure:"log"`
	Sentry  SentryConfig  `mapstructure:"sentry"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Veriff  VeriffConfig  `mapstructure:"veriff"`
	Watch   WatchConfig   `mapstructure:"watch"`
}

// APIConfig describes the backend the transport talks to.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url" validate:"required,url"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gte=0"`
	UserAgent string        `mapstructure:"user_agent"`
	// RateLimit is requests per second; zero disables client-side throttling.
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
	Burst     int     `mapstructure:"burst" validate:"gte=0"`
}

type CacheConfig struct {
	DefaultStaleTime time.Duration `mapstructure:"default_stale_time" validate:"gte=0"`
	KeepUnusedFor    time.Duration `mapstructure:"keep_unused_for" validate:"gte=0"`
	CleanupInterval  time.Duration `mapstructure:"cleanup_interval" validate:"gte=0"`
}

// PersistConfig selects where the auth slice survives restarts.
type PersistConfig struct {
	Driver           string        `mapstructure:"driver" validate:"oneof=file redis none"`
	Path             string        `mapstructure:"path" validate:"required_if=Driver file"`
	Key              string        `mapstructure:"key" validate:"required"`
	Allow            []string      `mapstructure:"allow"`
	RehydrateTimeout time.Duration `mapstructure:"rehydrate_timeout" validate:"gte=0"`
}

type SentryConfig struct {
	DSN              string  `mapstructure:"dsn"`
	Environment      string  `mapstructure:"environment"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate" validate:"gte=0,lte=1"`
}

// Enabled reports whether a DSN is configured.
func (s SentryConfig) Enabled() bool {
	return s.DSN != ""
}

type MetricsConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

type VeriffConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gte=0"`
}

// WatchConfig drives the long-running watch command.
type WatchConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gte=0"`
}
