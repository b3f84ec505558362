package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
service_name = "shop"
environment = "staging"

[http]
port = 8081

[database]
driver = "sqlite"
dsn = "file::memory:"

[payment]
webhook_secret = "whsec_test"

[outbox]
interval = 250
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "shop", cfg.ServiceName)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 8081, cfg.HTTP.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Catalog.DefaultLowStockThreshold)
	assert.Equal(t, 250*time.Millisecond, cfg.OutboxInterval())
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("APP_HTTP_PORT", "9090")
	t.Setenv("APP_PAYMENT_WEBHOOK_SECRET", "from-env")

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "from-env", cfg.Payment.WebhookSecret)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	bad := *cfg
	bad.Database.Driver = "oracle"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Database.Driver = "mysql"
	bad.Database.DSN = ""
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Payment.WebhookSecret = ""
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Kafka.Enabled = true
	bad.Kafka.Brokers = nil
	assert.Error(t, bad.Validate())
}
