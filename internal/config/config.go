// Package config loads service settings from the environment (and an optional .env file).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/01moynul/storefront-golang/internal/pricing"
)

// MemoryDSN is the DB_DSN value that runs the API without MySQL.
const MemoryDSN = "memory"

// Config holds every setting the API reads at startup.
type Config struct {
	Port      string
	BaseURL   string
	UploadDir string

	DBDSN         string
	DBAutoMigrate bool

	JWTSecret    string
	JWTExpiresIn time.Duration

	// Optional bootstrap admin account, created at startup when missing.
	AdminEmail    string
	AdminPassword string

	PaystackSecretKey   string
	PaystackBaseURL     string
	PaystackCallbackURL string
	GatewayTimeout      time.Duration

	ClientOrigin string
	// TrustedProxies lists the reverse proxies whose X-Forwarded-For is
	// believed. Empty means the client IP is always the socket peer.
	TrustedProxies []string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPass     string
	MailFrom     string
	ContactInbox string

	RedisURL        string
	RateLimitPerMin int

	KafkaBrokers []string
	KafkaTopic   string

	GeminiAPIKey string
	GeminiModel  string

	LogLevel  string
	LogFormat string

	Pricing pricing.Policy
}

// Load reads .env if present, then the process environment.
func Load() (*Config, error) {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, applying defaults and
// validating required keys.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	var errs []error

	cfg := &Config{
		Port:                get("PORT", "8080"),
		UploadDir:           get("UPLOAD_DIR", "./uploads"),
		DBDSN:               get("DB_DSN", ""),
		JWTSecret:           get("JWT_SECRET", ""),
		AdminEmail:          strings.ToLower(get("ADMIN_EMAIL", "")),
		AdminPassword:       get("ADMIN_PASSWORD", ""),
		PaystackSecretKey:   get("PAYSTACK_SECRET_KEY", ""),
		PaystackBaseURL:     strings.TrimRight(get("PAYSTACK_BASE_URL", "https://api.paystack.co"), "/"),
		ClientOrigin:        strings.TrimRight(get("CLIENT_ORIGIN", "http://localhost:5173"), "/"),
		SMTPHost:            get("SMTP_HOST", ""),
		SMTPUser:            get("SMTP_USER", ""),
		SMTPPass:            get("SMTP_PASS", ""),
		MailFrom:            get("MAIL_FROM", "no-reply@storefront.local"),
		RedisURL:            get("REDIS_URL", ""),
		KafkaTopic:          get("KAFKA_TOPIC", "storefront.orders"),
		GeminiAPIKey:        get("GEMINI_API_KEY", ""),
		GeminiModel:         get("GEMINI_MODEL", "gemini-1.5-flash"),
		LogLevel:            get("LOG_LEVEL", "info"),
		LogFormat:           get("LOG_FORMAT", "json"),
		PaystackCallbackURL: get("PAYSTACK_CALLBACK_URL", ""),
	}
	cfg.BaseURL = strings.TrimRight(get("BASE_URL", "http://localhost:"+cfg.Port), "/")
	cfg.ContactInbox = get("CONTACT_INBOX", cfg.MailFrom)
	if cfg.PaystackCallbackURL == "" {
		cfg.PaystackCallbackURL = cfg.ClientOrigin + "/payment/callback"
	}
	cfg.KafkaBrokers = splitList(get("KAFKA_BROKERS", ""))
	cfg.TrustedProxies = splitList(get("TRUSTED_PROXIES", ""))

	var err error
	if cfg.DBAutoMigrate, err = strconv.ParseBool(get("DB_AUTO_MIGRATE", "false")); err != nil {
		errs = append(errs, fmt.Errorf("DB_AUTO_MIGRATE: %w", err))
	}
	if cfg.JWTExpiresIn, err = time.ParseDuration(get("JWT_EXPIRES_IN", "72h")); err != nil {
		errs = append(errs, fmt.Errorf("JWT_EXPIRES_IN: %w", err))
	}
	if cfg.GatewayTimeout, err = time.ParseDuration(get("GATEWAY_TIMEOUT", "30s")); err != nil {
		errs = append(errs, fmt.Errorf("GATEWAY_TIMEOUT: %w", err))
	}
	if cfg.SMTPPort, err = strconv.Atoi(get("SMTP_PORT", "587")); err != nil {
		errs = append(errs, fmt.Errorf("SMTP_PORT: %w", err))
	}
	if cfg.RateLimitPerMin, err = strconv.Atoi(get("RATE_LIMIT_PER_MIN", "10")); err != nil {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_PER_MIN: %w", err))
	}

	policy := pricing.DefaultPolicy()
	if policy.FlatShipping, err = decimal.NewFromString(get("SHIPPING_FLAT_FEE", policy.FlatShipping.String())); err != nil {
		errs = append(errs, fmt.Errorf("SHIPPING_FLAT_FEE: %w", err))
	}
	if policy.FreeShippingOver, err = decimal.NewFromString(get("SHIPPING_FREE_OVER", policy.FreeShippingOver.String())); err != nil {
		errs = append(errs, fmt.Errorf("SHIPPING_FREE_OVER: %w", err))
	}
	if policy.TaxRate, err = decimal.NewFromString(get("TAX_RATE", policy.TaxRate.String())); err != nil {
		errs = append(errs, fmt.Errorf("TAX_RATE: %w", err))
	}
	cfg.Pricing = policy

	if cfg.AdminEmail != "" && len(cfg.AdminPassword) < 6 {
		errs = append(errs, errors.New("ADMIN_PASSWORD must be at least 6 characters when ADMIN_EMAIL is set"))
	}

	for key, val := range map[string]string{
		"DB_DSN":              cfg.DBDSN,
		"JWT_SECRET":          cfg.JWTSecret,
		"PAYSTACK_SECRET_KEY": cfg.PaystackSecretKey,
	} {
		if val == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// splitList turns a comma-separated value into its non-empty entries.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// MemoryStore reports whether DB_DSN selects the in-memory store instead of MySQL.
func (c *Config) MemoryStore() bool { return c.DBDSN == MemoryDSN }

// SMTPEnabled reports whether outbound mail is configured.
func (c *Config) SMTPEnabled() bool { return c.SMTPHost != "" }
