package config

import (
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppEnv         string        `envconfig:"APP_ENV" default:"development"`
	Port           string        `envconfig:"PORT" default:"8080"`
	LogFormat      string        `envconfig:"LOG_FORMAT" default:"text"`
	CORSOrigins    []string      `envconfig:"CORS_ORIGINS" default:"*"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`

	DBType            string `envconfig:"DB_TYPE" default:"mongo"`
	MongoURL          string `envconfig:"MONGO_URL" default:"mongodb://localhost:27017"`
	MongoDB           string `envconfig:"MONGO_DB" default:"fleetledger"`
	MongoTransactions bool   `envconfig:"MONGO_TRANSACTIONS" default:"false"`

	UserStore       string `envconfig:"USER_STORE"`
	PostgresURL     string `envconfig:"POSTGRES_URL"`
	MigrationsURL   string `envconfig:"MIGRATIONS_URL" default:"file://db/migrations"`
	PostgresMaxConn int    `envconfig:"POSTGRES_MAX_CONNS" default:"5"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	JWTSecret    string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL     time.Duration `envconfig:"TOKEN_TTL" default:"720h"`
	RoleTokenTTL time.Duration `envconfig:"ROLE_TOKEN_TTL" default:"24h"`
	OTPTTL       time.Duration `envconfig:"OTP_TTL" default:"5m"`
	OTPLength    int           `envconfig:"OTP_LENGTH" default:"6"`

	R2Bucket          string `envconfig:"R2_BUCKET"`
	R2AccountID       string `envconfig:"R2_ACCOUNT_ID"`
	R2PublicURL       string `envconfig:"R2_PUBLIC_URL"`
	R2AccessKeyID     string `envconfig:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `envconfig:"R2_SECRET_ACCESS_KEY"`

	ImageMaxDimension  uint  `envconfig:"IMAGE_MAX_DIMENSION" default:"1600"`
	MaxUploadBytes     int64 `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	DocumentExpiryDays int   `envconfig:"DOCUMENT_EXPIRY_DAYS" default:"30"`

	AuthRateLimit  int    `envconfig:"AUTH_RATE_LIMIT" default:"10"`
	TemplateDir    string `envconfig:"TEMPLATE_DIR" default:"templates"`
	InvoiceDueDays int    `envconfig:"INVOICE_DUE_DAYS" default:"30"`
	ExpiryScanCron string `envconfig:"EXPIRY_SCAN_CRON" default:"0 6 * * *"`

	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"5"`
	WorkerMetricsPort string `envconfig:"WORKER_METRICS_PORT" default:"9091"`
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be provided")
	}
	if cfg.UserStore == "" {
		cfg.UserStore = cfg.DBType
	}
	if cfg.UserStore == "postgres" && cfg.PostgresURL == "" {
		return nil, errors.New("USER_STORE=postgres requires POSTGRES_URL")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// StorageConfigured reports whether R2 credentials are present.
func (c *Config) StorageConfigured() bool {
	return c.R2Bucket != "" && c.R2AccountID != "" && c.R2PublicURL != ""
}
