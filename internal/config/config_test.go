package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setValidEnv(t *testing.T) {
	t.Setenv("ADYEN_MERCHANT_ACCOUNT", "ShopECOM")
	t.Setenv("ADYEN_HMAC_KEY", "44782DEF547AAA06C910C43932B1EB0C71FC68D9D0C057550C48EC2ACF6BA056")
	t.Setenv("ADYEN_API_KEY", "AQE-test")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setValidEnv(t)
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("PAYMENT_LOCK_TTL", "10s")

	cfg := Load()

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "payment.events", cfg.Kafka.Topics.PaymentEvents)
	assert.Equal(t, "payment.commands", cfg.Kafka.Topics.PaymentCommands)
	assert.Equal(t, 10*time.Second, cfg.Redis.LockTTL)
	assert.Equal(t, "ShopECOM", cfg.Adyen.Method.MerchantAccount)
	require.NoError(t, cfg.Validate())
}

func TestValidateMissingMerchantAccount(t *testing.T) {
	setValidEnv(t)
	t.Setenv("ADYEN_MERCHANT_ACCOUNT", "")

	err := Load().Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "merchant account is required")
}

func TestValidateSkipsMethodWhenNotSeeded(t *testing.T) {
	setValidEnv(t)
	t.Setenv("ADYEN_MERCHANT_ACCOUNT", "")
	t.Setenv("ADYEN_SEED_METHOD", "false")

	assert.NoError(t, Load().Validate())
}

func TestValidateRequiresAuth(t *testing.T) {
	setValidEnv(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("OIDC_ISSUER", "")

	err := Load().Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", Username: "u", Password: "p@ss", Database: "payments", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss@db:5432/payments?sslmode=disable", d.DSN())
}
