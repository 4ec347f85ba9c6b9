// Package config loads application configuration from a yaml file with
// environment-variable overrides, so secrets can live in .env locally
// and in real env vars in deployment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ignite/forms-api/internal/pkg/retry"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Email   EmailConfig   `yaml:"email"`
	Retry   RetryConfig   `yaml:"retry"`
	Admin   AdminConfig   `yaml:"admin"`
	Redis   RedisConfig   `yaml:"redis"`
	Export  ExportConfig  `yaml:"export"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds DynamoDB settings.
type StorageConfig struct {
	Table   string `yaml:"table"`
	Region  string `yaml:"region"`
	Profile string `yaml:"profile"`
}

// EmailConfig holds SES credentials and sender identity.
type EmailConfig struct {
	AccessKey       string   `yaml:"access_key"`
	SecretKey       string   `yaml:"secret_key"`
	Region          string   `yaml:"region"`
	From            string   `yaml:"from"`
	FromName        string   `yaml:"from_name"`
	ReplyTo         string   `yaml:"reply_to"`
	AdminRecipients []string `yaml:"admin_recipients"`
}

// RetryConfig holds the notification retry knobs.
type RetryConfig struct {
	MaxAttempts    int     `yaml:"max_attempts"`
	InitialDelayMS int     `yaml:"initial_delay_ms"`
	MaxDelayMS     int     `yaml:"max_delay_ms"`
	Multiplier     float64 `yaml:"multiplier"`
	JitterFraction float64 `yaml:"jitter_fraction"`
}

// Policy converts the knobs into an executable retry policy.
func (rc RetryConfig) Policy() retry.Config {
	return retry.Config{
		MaxAttempts: rc.MaxAttempts,
		Backoff: retry.Backoff{
			InitialDelay:   time.Duration(rc.InitialDelayMS) * time.Millisecond,
			Multiplier:     rc.Multiplier,
			MaxDelay:       time.Duration(rc.MaxDelayMS) * time.Millisecond,
			JitterFraction: rc.JitterFraction,
		},
		IsNonRetryable: retry.DefaultNonRetryable,
	}
}

// AdminConfig holds the shared token protecting admin routes.
type AdminConfig struct {
	Token string `yaml:"token"`
}

// RedisConfig holds rate-limiter settings. An empty URL disables the
// limiter entirely.
type RedisConfig struct {
	URL            string `yaml:"url"`
	LimitPerMinute int    `yaml:"limit_per_minute"`
}

// ExportConfig holds the S3 bucket for admin snapshot exports.
type ExportConfig struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
}

// Load reads configuration from a yaml file and applies defaults.
// A missing file is not an error; everything can come from env.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Email.Region == "" {
		cfg.Email.Region = cfg.Storage.Region
	}
	if cfg.Email.FromName == "" {
		cfg.Email.FromName = "Forms"
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.InitialDelayMS == 0 {
		cfg.Retry.InitialDelayMS = 1000
	}
	if cfg.Retry.MaxDelayMS == 0 {
		cfg.Retry.MaxDelayMS = 30000
	}
	if cfg.Retry.Multiplier == 0 {
		cfg.Retry.Multiplier = 2
	}
	if cfg.Retry.JitterFraction == 0 {
		cfg.Retry.JitterFraction = 0.25
	}
	if cfg.Redis.LimitPerMinute == 0 {
		cfg.Redis.LimitPerMinute = 10
	}
	if cfg.Export.Region == "" {
		cfg.Export.Region = cfg.Storage.Region
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is loaded first, so secrets can live in .env
// locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DYNAMO_TABLE"); v != "" {
		cfg.Storage.Table = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Storage.Region = v
	}
	if v := os.Getenv("AWS_PROFILE"); v != "" {
		cfg.Storage.Profile = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.Email.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.Email.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.Email.Region = v
	}
	if v := os.Getenv("EMAIL_FROM"); v != "" {
		cfg.Email.From = v
	}
	if v := os.Getenv("EMAIL_FROM_NAME"); v != "" {
		cfg.Email.FromName = v
	}
	if v := os.Getenv("EMAIL_REPLY_TO"); v != "" {
		cfg.Email.ReplyTo = v
	}
	if v := os.Getenv("ADMIN_EMAILS"); v != "" {
		cfg.Email.AdminRecipients = splitList(v)
	}

	// Retry knobs
	if v := os.Getenv("MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retry.MaxAttempts = n
		}
	}
	if v := os.Getenv("INITIAL_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retry.InitialDelayMS = n
		}
	}
	if v := os.Getenv("MAX_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retry.MaxDelayMS = n
		}
	}
	if v := os.Getenv("BACKOFF_MULTIPLIER"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Retry.Multiplier = f
		}
	}
	if v := os.Getenv("JITTER_PERCENTAGE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.Retry.JitterFraction = f
		}
	}

	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		cfg.Admin.Token = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("EXPORT_BUCKET"); v != "" {
		cfg.Export.Bucket = v
	}

	return cfg, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
