package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	// Server configuration
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PubNubUUID         string

	// Scheduling configuration
	PriorityPerCycle int
	PersonalPerCycle int
	EtaPerTicket     time.Duration

	// Lane gating
	MinPriorityTip decimal.Decimal

	// Payment configuration
	PaymentProvider      string
	PaymentTimeout       time.Duration
	PaymentWebhookSecret string // bcrypt hash of the shared webhook secret
	QRPay                QRPayConfig

	// Cleanup configuration
	CleanupInterval time.Duration

	// Display cache
	SnapshotCacheTTL time.Duration

	// Rate limiting
	SubmitRateLimit  int
	SubmitRateWindow time.Duration

	// Monitoring
	EnableMetrics bool
}

// QRPayConfig holds the QR payment gateway credentials.
type QRPayConfig struct {
	BaseURL   string
	PartnerID string
	ClientID  string
	ClientKey string
	HMACKey   string
	Currency  string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubUUID:         getEnv("PUBNUB_UUID", "favordesk-server"),

		// Scheduling
		PriorityPerCycle: getEnvAsInt("PRIORITY_PER_CYCLE", 3),
		PersonalPerCycle: getEnvAsInt("PERSONAL_PER_CYCLE", 1),
		EtaPerTicket:     getEnvAsDuration("ETA_PER_TICKET", "5m"),

		// Lane gating
		MinPriorityTip: getEnvAsDecimal("MIN_PRIORITY_TIP", "5"),

		// Payment
		PaymentProvider:      getEnv("PAYMENT_PROVIDER", "none"),
		PaymentTimeout:       getEnvAsDuration("PAYMENT_TIMEOUT", "15m"),
		PaymentWebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		QRPay: QRPayConfig{
			BaseURL:   getEnv("QRPAY_BASE_URL", ""),
			PartnerID: getEnv("QRPAY_PARTNER_ID", ""),
			ClientID:  getEnv("QRPAY_CLIENT_ID", ""),
			ClientKey: getEnv("QRPAY_CLIENT_KEY", ""),
			HMACKey:   getEnv("QRPAY_HMAC_KEY", ""),
			Currency:  getEnv("QRPAY_CURRENCY", "USD"),
		},

		// Cleanup
		CleanupInterval: getEnvAsDuration("CLEANUP_INTERVAL", "1h"),

		// Display cache
		SnapshotCacheTTL: getEnvAsDuration("SNAPSHOT_CACHE_TTL", "5s"),

		// Rate limiting
		SubmitRateLimit:  getEnvAsInt("SUBMIT_RATE_LIMIT", 10),
		SubmitRateWindow: getEnvAsDuration("SUBMIT_RATE_WINDOW", "1m"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsDecimal(key string, defaultValue string) decimal.Decimal {
	valueStr := getEnv(key, defaultValue)
	if value, err := decimal.NewFromString(valueStr); err == nil {
		return value
	}
	value, _ := decimal.NewFromString(defaultValue)
	return value
}
