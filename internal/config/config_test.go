package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mixbox-shop/internal/auth"
	"github.com/example/mixbox-shop/internal/domain/delivery"
	"github.com/example/mixbox-shop/internal/infrastructure/store"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// loadFrom runs Load against an empty temp dir so no stray config.yaml or .env is picked up.
func loadFrom(t *testing.T, yaml string) (*Config, error) {
	t.Helper()
	dir := t.TempDir()
	if yaml != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	}
	t.Chdir(dir)
	return Load(dir)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)

	cfg, err := loadFrom(t, "")

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, store.DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 24*time.Hour, cfg.SessionRetention)
	assert.Equal(t, 24*time.Hour, cfg.SelectionTTL)
	assert.Equal(t, "DKK", cfg.Currency)
	assert.Equal(t, "basket-events", cfg.KafkaTopic)
	assert.Empty(t, cfg.Brokers())
	assert.Empty(t, cfg.Proxies())
	assert.Equal(t, delivery.DefaultTable(), cfg.Delivery)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("SESSION_RETENTION", "192h")
	t.Setenv("SESSION_COOKIE_SECURE", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("ENV", "production")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,172.16.0.1")

	cfg, err := loadFrom(t, "")

	require.NoError(t, err)
	assert.Equal(t, store.DriverMongo, cfg.StoreDriver)
	assert.Equal(t, store.DriverMongo, cfg.Backend().Driver)
	assert.Equal(t, 192*time.Hour, cfg.SessionRetention)
	assert.True(t, cfg.SessionCookieSecure)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers())
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.1"}, cfg.Proxies())
}

func TestLoad_DeliveryOverrideFromFile(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)

	cfg, err := loadFrom(t, `
delivery:
  pickupPoint:
    - maxWeightGrams: 10000
      fee: 3900
    - maxWeightGrams: 30000
      fee: 5900
`)

	require.NoError(t, err)
	assert.Equal(t, []delivery.Bracket{{MaxWeightGrams: 10000, Fee: 3900}, {MaxWeightGrams: 30000, Fee: 5900}}, cfg.Delivery[delivery.PickupPoint])
	assert.Equal(t, delivery.DefaultTable()[delivery.HomeDelivery], cfg.Delivery[delivery.HomeDelivery])
}

// ============================================
// Validation Tests
// ============================================

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StoreDriver:      store.DriverPostgres,
			SessionSecret:    testSecret,
			SessionRetention: time.Hour,
			SelectionTTL:     time.Hour,
			Delivery:         delivery.DefaultTable(),
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"valid", func(c *Config) {}, nil},
		{"missing secret", func(c *Config) { c.SessionSecret = "" }, ErrMissingSecret},
		{"short secret", func(c *Config) { c.SessionSecret = "short" }, auth.ErrWeakSecret},
		{"unknown driver", func(c *Config) { c.StoreDriver = "sqlite" }, ErrUnknownDriver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidate_RejectsUnorderedBrackets(t *testing.T) {
	c := &Config{
		StoreDriver:      store.DriverPostgres,
		SessionSecret:    testSecret,
		SessionRetention: time.Hour,
		SelectionTTL:     time.Hour,
		Delivery: delivery.Table{
			delivery.PickupPoint: {{MaxWeightGrams: 5000, Fee: 100}, {MaxWeightGrams: 5000, Fee: 200}},
		},
	}

	assert.Error(t, c.Validate())
}

func TestValidate_NonPositiveDurations(t *testing.T) {
	c := &Config{StoreDriver: store.DriverPostgres, SessionSecret: testSecret, SelectionTTL: time.Hour}
	assert.Error(t, c.Validate())

	c.SessionRetention = time.Hour
	c.SelectionTTL = 0
	assert.Error(t, c.Validate())
}
