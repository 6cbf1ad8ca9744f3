package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr string `mapstructure:"http_addr"`
	Env      string `mapstructure:"env"` // "dev" | "prod"

	DB        DBConfig        `mapstructure:"db"`
	Log       LogConfig       `mapstructure:"log"`
	Tap       TapConfig       `mapstructure:"tap"`
	Heartbeat HeartbeatConfig `mapstructure:"heartbeat"`

	// Dev seed data: readers to commission and card -> subject badges.
	SeedReaders []string          `mapstructure:"seed_readers"`
	SeedBadges  map[string]string `mapstructure:"seed_badges"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type TapConfig struct {
	// AllowExpiredExit lets an expired badge close its own open session.
	AllowExpiredExit bool `mapstructure:"allow_expired_exit"`

	// Per-reader token-bucket limit for /v1/tap.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

type HeartbeatConfig struct {
	RetentionDays      int `mapstructure:"retention_days"` // 0 = keep forever
	PruneIntervalHours int `mapstructure:"prune_interval_hours"`
}

// Load reads an optional passage.yaml from the working directory or
// ./config, with PASSAGE_* environment variables taking precedence
// (e.g. PASSAGE_HTTP_ADDR, PASSAGE_DB_PATH, PASSAGE_TAP_ALLOW_EXPIRED_EXIT).
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("env", "dev")
	v.SetDefault("db.path", "./data/passage.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("tap.allow_expired_exit", false)
	v.SetDefault("tap.rate_limit", 5.0)
	v.SetDefault("tap.rate_burst", 10)
	v.SetDefault("heartbeat.retention_days", 30)
	v.SetDefault("heartbeat.prune_interval_hours", 6)

	v.SetConfigName("passage")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("PASSAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		// No config file is fine; defaults + env carry the day.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}

	return cfg, nil
}
