package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env            string        `mapstructure:"ENV"`
	Port           string        `mapstructure:"PORT"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	AdminKey       string        `mapstructure:"ADMIN_KEY"`
	SQCBAPIURL     string        `mapstructure:"SQCB_API_URL"`
	SQCBAPITimeout time.Duration `mapstructure:"SQCB_API_TIMEOUT"`
	FixturePath    string        `mapstructure:"SQCB_FIXTURE_PATH"`
	CORSAllowed    string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	CacheTTL       time.Duration `mapstructure:"CACHE_TTL"`
	SyncSchedule   string        `mapstructure:"SYNC_SCHEDULE"`
	WindowDays     int           `mapstructure:"WINDOW_DAYS"`
}

var keys = []string{
	"ENV", "PORT", "DATABASE_URL", "ADMIN_KEY",
	"SQCB_API_URL", "SQCB_API_TIMEOUT", "SQCB_FIXTURE_PATH",
	"CORS_ALLOWED_ORIGINS", "REQUEST_TIMEOUT", "LOG_LEVEL",
	"CACHE_TTL", "SYNC_SCHEDULE", "WINDOW_DAYS",
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	// AutomaticEnv only resolves keys viper already knows about.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("SQCB_API_TIMEOUT", "15s")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("CACHE_TTL", "30s")
	v.SetDefault("WINDOW_DAYS", 6)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.WindowDays < 0 {
		return Config{}, fmt.Errorf("config: WINDOW_DAYS must not be negative, got %d", cfg.WindowDays)
	}
	return cfg, nil
}

// HasStore reports whether a Postgres snapshot is configured.
func (c Config) HasStore() bool {
	return c.DatabaseURL != ""
}
