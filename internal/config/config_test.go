package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 1000, cfg.Retry.InitialDelayMS)
	assert.Equal(t, 30000, cfg.Retry.MaxDelayMS)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)
	assert.Equal(t, 0.25, cfg.Retry.JitterFraction)
	assert.Equal(t, 10, cfg.Redis.LimitPerMinute)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: 9090
storage:
  table: forms-prod
  region: eu-west-1
email:
  from: hello@example.com
  admin_recipients:
    - ops@example.com
retry:
  max_attempts: 5
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "forms-prod", cfg.Storage.Table)
	assert.Equal(t, "eu-west-1", cfg.Storage.Region)
	assert.Equal(t, "hello@example.com", cfg.Email.From)
	assert.Equal(t, []string{"ops@example.com"}, cfg.Email.AdminRecipients)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	// SES region inherits the storage region when unset.
	assert.Equal(t, "eu-west-1", cfg.Email.Region)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("DYNAMO_TABLE", "forms-staging")
	t.Setenv("EMAIL_FROM", "env@example.com")
	t.Setenv("ADMIN_EMAILS", "a@example.com, b@example.com,")
	t.Setenv("MAX_RETRIES", "7")
	t.Setenv("INITIAL_DELAY_MS", "250")
	t.Setenv("BACKOFF_MULTIPLIER", "1.5")
	t.Setenv("JITTER_PERCENTAGE", "0.1")
	t.Setenv("ADMIN_TOKEN", "secret-token")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "forms-staging", cfg.Storage.Table)
	assert.Equal(t, "env@example.com", cfg.Email.From)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Email.AdminRecipients)
	assert.Equal(t, 7, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250, cfg.Retry.InitialDelayMS)
	assert.Equal(t, 1.5, cfg.Retry.Multiplier)
	assert.Equal(t, 0.1, cfg.Retry.JitterFraction)
	assert.Equal(t, "secret-token", cfg.Admin.Token)
	assert.Equal(t, "redis://localhost:6379", cfg.Redis.URL)
}

func TestRetryPolicyConversion(t *testing.T) {
	rc := RetryConfig{
		MaxAttempts:    4,
		InitialDelayMS: 500,
		MaxDelayMS:     10000,
		Multiplier:     3,
		JitterFraction: 0.2,
	}

	p := rc.Policy()
	assert.Equal(t, 4, p.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, p.Backoff.InitialDelay)
	assert.Equal(t, 10*time.Second, p.Backoff.MaxDelay)
	assert.Equal(t, 3.0, p.Backoff.Multiplier)
	assert.Equal(t, 0.2, p.Backoff.JitterFraction)
	assert.NotNil(t, p.IsNonRetryable)
}

func TestInvalidEnvValuesIgnored(t *testing.T) {
	t.Setenv("MAX_RETRIES", "not-a-number")
	t.Setenv("BACKOFF_MULTIPLIER", "-2")

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)
}
