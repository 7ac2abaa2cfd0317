package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func requiredEnv() map[string]string {
	return map[string]string{
		"DB_DSN":              "user:pass@tcp(localhost:3306)/shop?parseTime=true",
		"JWT_SECRET":          "secret",
		"PAYSTACK_SECRET_KEY": "sk_test_123",
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(requiredEnv()))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 72*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 30*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, "https://api.paystack.co", cfg.PaystackBaseURL)
	assert.Equal(t, "http://localhost:5173/payment/callback", cfg.PaystackCallbackURL)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.False(t, cfg.SMTPEnabled())
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Empty(t, cfg.TrustedProxies)
	assert.Equal(t, "./uploads", cfg.UploadDir)
	assert.False(t, cfg.MemoryStore())
	assert.True(t, decimal.RequireFromString("0.075").Equal(cfg.Pricing.TaxRate))
}

func TestFromEnvOverrides(t *testing.T) {
	env := requiredEnv()
	env["CLIENT_ORIGIN"] = "https://shop.example.com/"
	env["KAFKA_BROKERS"] = "k1:9092, k2:9092"
	env["JWT_EXPIRES_IN"] = "30m"
	env["SHIPPING_FLAT_FEE"] = "1500"
	env["SMTP_HOST"] = "smtp.example.com"
	env["TRUSTED_PROXIES"] = "10.0.0.0/8, ,127.0.0.1"

	cfg, err := FromEnv(envMap(env))
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com", cfg.ClientOrigin)
	assert.Equal(t, "https://shop.example.com/payment/callback", cfg.PaystackCallbackURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
	assert.Equal(t, 30*time.Minute, cfg.JWTExpiresIn)
	assert.True(t, decimal.NewFromInt(1500).Equal(cfg.Pricing.FlatShipping))
	assert.True(t, cfg.SMTPEnabled())
}

func TestFromEnvMissingRequired(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{"JWT_EXPIRES_IN": "soon"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DSN is required")
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
	assert.Contains(t, err.Error(), "PAYSTACK_SECRET_KEY is required")
	assert.Contains(t, err.Error(), "JWT_EXPIRES_IN")
}

func TestMemoryStoreDSN(t *testing.T) {
	env := requiredEnv()
	env["DB_DSN"] = MemoryDSN

	cfg, err := FromEnv(envMap(env))
	require.NoError(t, err)
	assert.True(t, cfg.MemoryStore())
}
