package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"namerecon-service/internal/reconcile/model"
)

type Config struct {
	Host         string      `mapstructure:"host"`
	Port         int         `mapstructure:"port"`
	AllowOrigins []string    `mapstructure:"allow_origins"`
	LogLevel     string      `mapstructure:"log_level"`
	MaxUploadMB  int         `mapstructure:"max_upload_mb"`
	LogFile      string      `mapstructure:"log_file"`
	Store        StoreConfig `mapstructure:"store"`
	Match        MatchConfig `mapstructure:"match"`
	RateLimit    RateLimit   `mapstructure:"rate_limit"`
	Pprof        bool        `mapstructure:"pprof"` // /debug/pprof на основном роутере
}

// RateLimit — лимит на загрузку и разбор файлов; RPS 0 выключает.
type RateLimit struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type StoreConfig struct {
	Type string `mapstructure:"type"` // "memory" или "sqlite"
	Path string `mapstructure:"path"`
}

// MatchConfig — только порог принятия; веса ярусов — константы каскада.
type MatchConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

// Load: config.yaml (необязателен) + переменные окружения NAMERECON_*.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("NAMERECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	// "a,b" из окружения приходит одной строкой
	if len(cfg.AllowOrigins) == 1 && strings.Contains(cfg.AllowOrigins[0], ",") {
		cfg.AllowOrigins = strings.Split(cfg.AllowOrigins[0], ",")
	}
	if err := validate(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", 8082)
	v.SetDefault("allow_origins", []string{"*"})
	v.SetDefault("log_level", "info")
	v.SetDefault("max_upload_mb", 256)
	v.SetDefault("log_file", "logs/namerecon-service.log")
	v.SetDefault("store.type", "sqlite")
	v.SetDefault("store.path", "data/namerecon.db")
	v.SetDefault("match.threshold", model.DefaultMatchConfig().Threshold)
	v.SetDefault("rate_limit.rps", 5)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("pprof", false)
}

func validate(cfg Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port out of range: %d", cfg.Port)
	}
	if cfg.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive, got: %d", cfg.MaxUploadMB)
	}
	switch cfg.Store.Type {
	case "memory":
	case "sqlite":
		if cfg.Store.Path == "" {
			return fmt.Errorf("store.path is required when store.type is 'sqlite'")
		}
	default:
		return fmt.Errorf("store type must be 'memory' or 'sqlite', got: %s", cfg.Store.Type)
	}
	if cfg.Match.Threshold <= 0 || cfg.Match.Threshold > 100 {
		return fmt.Errorf("match.threshold must be in (0,100], got: %v", cfg.Match.Threshold)
	}
	if cfg.RateLimit.RPS < 0 || cfg.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit must not be negative, got: %v/%d", cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	return nil
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// MatchConfig — константы каскада с порогом из конфигурации.
func (c Config) MatchConfig() model.MatchConfig {
	mc := model.DefaultMatchConfig()
	mc.Threshold = c.Match.Threshold
	return mc.WithDefaults()
}
