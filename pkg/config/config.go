package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL    string
	DatabaseDriver string

	JWTAccessSecret    []byte
	VerificationSecret []byte

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	OTPTestMode      bool
	OTPTTL           time.Duration
	OTPSweepInterval time.Duration
	PhoneCountryCode string

	NotifyWebhookURL string

	StrictOrderTransitions bool

	CSRFEnabled bool
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storefront"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DatabaseDriver: EnvDefault("DATABASE_DRIVER", "pgx"),

		JWTAccessSecret:    []byte(os.Getenv("JWT_SECRET")),
		VerificationSecret: []byte(EnvDefault("VERIFICATION_SECRET", os.Getenv("JWT_SECRET"))),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		OTPTestMode:      EnvBoolDefault("OTP_TEST_MODE", true),
		OTPTTL:           EnvDurationDefault("OTP_TTL", 5*time.Minute),
		OTPSweepInterval: EnvDurationDefault("OTP_SWEEP_INTERVAL", time.Minute),
		PhoneCountryCode: EnvDefault("PHONE_COUNTRY_CODE", "91"),

		NotifyWebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),

		StrictOrderTransitions: EnvBoolDefault("ORDER_STRICT_TRANSITIONS", false),

		CSRFEnabled: EnvBoolDefault("CSRF_ENABLED", true),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
