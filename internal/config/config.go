package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// storage
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	PostgresUser   string `toml:"postgres_user"`
	RedisHost      string `toml:"redis_host"`
	RedisPort      string `toml:"redis_port"`

	// analysis jobs
	QueueName                string   `toml:"queue_name"`
	Workers                  int      `toml:"workers"`
	DequeueTimeout           Duration `toml:"dequeue_timeout"`
	JobTimeout               Duration `toml:"job_timeout"`
	LandmarksHTTPTimeout     Duration `toml:"landmarks_http_timeout"`
	AnalyzeRateLimitPerMin   int      `toml:"analyze_rate_limit_per_min"`
	ProfilesPath             string   `toml:"profiles_path"`
	ResultCacheSizeMB        int      `toml:"result_cache_size_mb"`
	ResultCacheExpirySeconds int      `toml:"result_cache_expiry_seconds"`
}

// Duration decodes TOML strings like "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the section of the TOML file at path that matches env,
// filling in defaults for unset job settings.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.QueueName == "" {
		c.QueueName = "formcheck:jobs"
	}
	if c.Workers == 0 {
		c.Workers = 2
	}
	if c.DequeueTimeout.Duration == 0 {
		c.DequeueTimeout.Duration = 5 * time.Second
	}
	if c.JobTimeout.Duration == 0 {
		c.JobTimeout.Duration = 10 * time.Minute
	}
	if c.LandmarksHTTPTimeout.Duration == 0 {
		c.LandmarksHTTPTimeout.Duration = time.Minute
	}
	if c.AnalyzeRateLimitPerMin == 0 {
		c.AnalyzeRateLimitPerMin = 30
	}
	if c.ResultCacheSizeMB == 0 {
		c.ResultCacheSizeMB = 16
	}
	if c.ResultCacheExpirySeconds == 0 {
		c.ResultCacheExpirySeconds = 600
	}
	if c.PostgresUser == "" {
		c.PostgresUser = "postgres"
	}
}

func (c *Config) Validate() error {
	if c.Port <= 0 {
		return errors.New("port must be set")
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid workers count: %d", c.Workers)
	}
	if c.AnalyzeRateLimitPerMin < 0 {
		return fmt.Errorf("invalid analyze rate limit: %d", c.AnalyzeRateLimitPerMin)
	}
	return nil
}

// Secrets are never kept in the config file.
type Secrets struct {
	RedisPassword    string `env:"FORMCHECK_REDIS_PASS"`
	PostgresPassword string `env:"FORMCHECK_POSTGRES_PASS"`
	SentryDSN        string `env:"SENTRY_DSN"`
	HoneycombEnabled bool   `env:"HONEYCOMB_ENABLED, default=false"`
	HoneycombAPIKey  string `env:"HONEYCOMB_API_KEY"`
}

func LoadSecrets(ctx context.Context) (*Secrets, error) {
	return loadSecrets(ctx, envconfig.OsLookuper())
}

func loadSecrets(ctx context.Context, lookuper envconfig.Lookuper) (*Secrets, error) {
	var s Secrets
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &s,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	return &s, nil
}
