// Package config provides configuration loading and validation utilities.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultDir = "./configs"
	envPrefix  = "SPARK"
)

// Load reads configs/<APP_ENV>.yaml plus environment overrides, validates it, and returns the resulting Config.
func Load() (*Config, *viper.Viper, error) {
	if err := loadEnvFiles(".env.local", ".env"); err != nil {
		return nil, nil, err
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	return LoadFrom(defaultDir, env)
}

// loadEnvFiles loads each dotenv file that exists. Earlier files win because
// godotenv never overrides a variable that is already set.
func loadEnvFiles(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// LoadFrom reads <dir>/<env>.yaml. A missing file is tolerated so the client
// can run from environment variables alone. Overrides use the SPARK_ prefix,
// e.g. SPARK_API_BASE_URL.
func LoadFrom(dir, env string) (*Config, *viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(filepath.Join(dir, env+".yaml"))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AppEnv = env
	if cfg.Sentry.Environment == "" {
		cfg.Sentry.Environment = env
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("language", "en")

	v.SetDefault("api.base_url", "")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.user_agent", "sparkctl")
	v.SetDefault("api.rate_limit", 0)
	v.SetDefault("api.burst", 1)

	v.SetDefault("cache.default_stale_time", 0)
	v.SetDefault("cache.keep_unused_for", 60*time.Second)
	v.SetDefault("cache.cleanup_interval", 30*time.Second)

	v.SetDefault("persist.driver", "file")
	v.SetDefault("persist.path", ".spark/state.json")
	v.SetDefault("persist.key", "persist:root")
	v.SetDefault("persist.allow", []string{"auth.token"})
	v.SetDefault("persist.rehydrate_timeout", 5*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.sentry", false)

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "")
	v.SetDefault("sentry.traces_sample_rate", 0)

	v.SetDefault("metrics.addr", ":9102")
	v.SetDefault("metrics.shutdown_timeout", 5*time.Second)

	v.SetDefault("veriff.poll_interval", 5*time.Second)

	v.SetDefault("watch.poll_interval", 30*time.Second)
}
