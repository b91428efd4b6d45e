package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/farellandr/castingcall/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
}

func LoadConfig() (*Config, error) {
	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
	}, nil
}

const (
	DefaultPhonePeBaseURL = "https://api-preprod.phonepe.com/apis/pg-sandbox"
	DefaultCurrency       = "INR"
	DefaultSaltIndex      = "1"
)

// PhonePeConfig is built once at startup and shared by pointer with the
// gateway client and the payment service. Pay and status requests are
// signed in separate contexts and may use distinct salts.
type PhonePeConfig struct {
	MerchantID      string
	BaseURL         string
	PaySalt         string
	StatusSalt      string
	SaltIndex       string
	CallbackBaseURL string
	Currency        string
}

var ErrMissingGatewayConfig = errors.New("missing payment gateway configuration")

func LoadPhonePeConfig() (*PhonePeConfig, error) {
	shared := os.Getenv("PHONEPE_SALT_KEY")
	cfg := &PhonePeConfig{
		MerchantID:      os.Getenv("PHONEPE_MERCHANT_ID"),
		BaseURL:         getEnv("PHONEPE_BASE_URL", DefaultPhonePeBaseURL),
		PaySalt:         getEnv("PHONEPE_PAY_SALT", shared),
		StatusSalt:      getEnv("PHONEPE_STATUS_SALT", shared),
		SaltIndex:       getEnv("PHONEPE_SALT_INDEX", DefaultSaltIndex),
		CallbackBaseURL: strings.TrimRight(os.Getenv("PHONEPE_CALLBACK_BASE_URL"), "/"),
		Currency:        getEnv("PAYMENT_CURRENCY", DefaultCurrency),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *PhonePeConfig) Validate() error {
	var missing []string
	if c.MerchantID == "" {
		missing = append(missing, "PHONEPE_MERCHANT_ID")
	}
	if c.PaySalt == "" {
		missing = append(missing, "PHONEPE_PAY_SALT")
	}
	if c.StatusSalt == "" {
		missing = append(missing, "PHONEPE_STATUS_SALT")
	}
	if c.CallbackBaseURL == "" {
		missing = append(missing, "PHONEPE_CALLBACK_BASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingGatewayConfig, strings.Join(missing, ", "))
	}
	return nil
}

// SharedSalt reports whether the pay and status contexts are signed with the
// same salt value.
func (c *PhonePeConfig) SharedSalt() bool {
	return c.PaySalt == c.StatusSalt
}

// WebhookURL is the server-reachable address the gateway calls back.
func (c *PhonePeConfig) WebhookURL() string {
	return c.CallbackBaseURL + "/v1/webhooks/phonepe"
}

type AuthConfig struct {
	JWTSecret     string
	ReceiptSecret string
}

func LoadAuthConfig() (*AuthConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET not configured")
	}
	return &AuthConfig{
		JWTSecret:     secret,
		ReceiptSecret: getEnv("RECEIPT_SECRET", secret),
	}, nil
}

type RabbitConfig struct {
	URL            string
	Exchange       string
	OutboxInterval time.Duration
	OutboxBatch    int
}

func LoadRabbitConfig() *RabbitConfig {
	return &RabbitConfig{
		URL:            os.Getenv("RABBIT_URL"),
		Exchange:       getEnv("PAYMENTS_EXCHANGE", "payments.events"),
		OutboxInterval: parseDuration("OUTBOX_INTERVAL", 2*time.Second),
		OutboxBatch:    parseInt("OUTBOX_BATCH", 32),
	}
}

func (c *RabbitConfig) Enabled() bool {
	return c.URL != ""
}

type ServerConfig struct {
	Port              string
	SentryDSN         string
	ReconcileInterval time.Duration
	ReconcileAfter    time.Duration
	ReconcileBatch    int
	RateLimitPerMin   int
	ShutdownTimeout   time.Duration
}

func LoadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:              getEnv("PORT", "8080"),
		SentryDSN:         os.Getenv("SENTRY_DSN"),
		ReconcileInterval: parseDuration("RECONCILE_INTERVAL", 0),
		ReconcileAfter:    parseDuration("RECONCILE_STALE_AFTER", 15*time.Minute),
		ReconcileBatch:    parseInt("RECONCILE_BATCH", 50),
		RateLimitPerMin:   parseInt("RATE_LIMIT_PER_MIN", 120),
		ShutdownTimeout:   parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
}

func OpenDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
}

func Migrate(db *gorm.DB) error {
	if err := enableUUIDExtension(db); err != nil {
		return err
	}

	return db.AutoMigrate(&models.Event{}, &models.Audition{}, &models.PaymentOrder{}, &models.OutboxMessage{})
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	db, err := OpenDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func parseDuration(key string, def time.Duration) time.Duration {
	if raw, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(raw); err == nil {
			return d
		}
	}
	return def
}

func parseInt(key string, def int) int {
	if raw, ok := os.LookupEnv(key); ok {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return def
}
