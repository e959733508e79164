package config

import (
	"os"
	"strconv"
	"time"

	"tiketku/internal/database"
	"tiketku/internal/external"
	"tiketku/internal/messaging"
	"tiketku/internal/settings"
)

// Config holds the application configuration
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// Sweep cadences for the batch binaries
	ConversionSweepInterval time.Duration
	GrantSweepInterval      time.Duration
	RedemptionSweepInterval time.Duration
	PayoutSweepInterval     time.Duration

	Database database.Config
	NATS     messaging.Config
	Payment  external.PaymentConfig
	Notifier external.NotifierConfig
	Settings settings.Defaults
}

// Load builds the configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8082"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		ConversionSweepInterval: time.Duration(getEnvInt("CONVERSION_SWEEP_SEC", 60)) * time.Second,
		GrantSweepInterval:      time.Duration(getEnvInt("GRANT_SWEEP_SEC", 3600)) * time.Second,
		RedemptionSweepInterval: time.Duration(getEnvInt("REDEMPTION_SWEEP_SEC", 3600)) * time.Second,
		PayoutSweepInterval:     time.Duration(getEnvInt("PAYOUT_SWEEP_SEC", 3600)) * time.Second,

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "tiketku"),
			Password:           getEnv("DB_PASSWORD", "tiketku123"),
			DBName:             getEnv("DB_NAME", "tiketku"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "tiketku"),
			ClientID:  getEnv("NATS_CLIENT_ID", "tiketku-api"),
		},

		Payment: external.PaymentConfig{
			BaseURL:     getEnv("PAYMENT_GATEWAY_URL", "https://pay.e-ghl.com/ipgsg/payment"),
			ServiceID:   getEnv("PAYMENT_SERVICE_ID", ""),
			Password:    getEnv("PAYMENT_PASSWORD", ""),
			CallbackURL: getEnv("PAYMENT_CALLBACK_URL", ""),
			Timeout:     time.Duration(getEnvInt("PAYMENT_TIMEOUT_SEC", 30)) * time.Second,
		},

		Notifier: external.NotifierConfig{
			BaseURL: getEnv("NOTIFIER_URL", ""),
			Timeout: time.Duration(getEnvInt("NOTIFIER_TIMEOUT_SEC", 10)) * time.Second,
		},

		Settings: settings.Defaults{
			CancellationPolicyHours: getEnvInt("CANCELLATION_POLICY_HOURS", 24),
			CommissionPct:           getEnvFloat("COMMISSION_PCT", 15.0),
			PayoutHoldHours:         getEnvInt("PAYOUT_HOLD_HOURS", 72),
			RegistrationBonusFree:   int64(getEnvInt("REGISTRATION_BONUS_FREE", 10)),
			ReferralBonusFree:       int64(getEnvInt("REFERRAL_BONUS_FREE", 20)),
			ReferralThreshold:       getEnvInt("REFERRAL_THRESHOLD", 3),
			BonusValidityDays:       getEnvInt("BONUS_VALIDITY_DAYS", 90),
		},
	}
}

// getEnv reads an environment variable with a fallback default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an integer environment variable
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat reads a float environment variable
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
