package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName        string `mapstructure:"app_name"`
	Env            string `mapstructure:"app_env"`
	LogLevel       string `mapstructure:"log_level"`
	ProfilesFile   string `mapstructure:"profiles_file"`
	PublishersFile string `mapstructure:"publishers_file"`
	UserAgent      string `mapstructure:"user_agent"`
	MetricsAddr    string `mapstructure:"metrics_addr"`

	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration `mapstructure:"-"`
	RetryMax              int           `mapstructure:"retry_max"`
	RetryWaitMinMs        int64         `mapstructure:"retry_wait_min_ms"`
	RetryWaitMaxMs        int64         `mapstructure:"retry_wait_max_ms"`
	RetryWaitMin          time.Duration `mapstructure:"-"`
	RetryWaitMax          time.Duration `mapstructure:"-"`
	RateLimitRPS          float64       `mapstructure:"rate_limit_rps"`

	PollIntervalSeconds int64         `mapstructure:"poll_interval"`
	PollInterval        time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "samvad-httpkit")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("profiles_file", "./configs/profiles.yaml")
	v.SetDefault("publishers_file", "")
	v.SetDefault("user_agent", "samvad-httpkit/1.0")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("request_timeout_seconds", 30)
	v.SetDefault("retry_max", 0)
	v.SetDefault("retry_wait_min_ms", 1000)
	v.SetDefault("retry_wait_max_ms", 30000)
	v.SetDefault("rate_limit_rps", 0)
	v.SetDefault("poll_interval", 0) // seconds; 0 runs profiles once
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/saved.db")
	v.SetDefault("storage_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
}

func (cfg *Config) normalize() error {
	if cfg.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	if cfg.RetryMax < 0 {
		return fmt.Errorf("invalid retry_max (must not be negative)")
	}
	if cfg.RetryWaitMinMs < 0 || cfg.RetryWaitMaxMs < cfg.RetryWaitMinMs {
		return fmt.Errorf("invalid retry wait bounds (need 0 <= retry_wait_min_ms <= retry_wait_max_ms)")
	}
	cfg.RetryWaitMin = time.Duration(cfg.RetryWaitMinMs) * time.Millisecond
	cfg.RetryWaitMax = time.Duration(cfg.RetryWaitMaxMs) * time.Millisecond

	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("invalid rate_limit_rps (must not be negative)")
	}

	if cfg.PollIntervalSeconds < 0 {
		return fmt.Errorf("invalid poll_interval (must not be negative seconds)")
	}
	cfg.PollInterval = time.Duration(cfg.PollIntervalSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return nil
}
