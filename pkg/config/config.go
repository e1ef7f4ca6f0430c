package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "NEXUS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "NEXUS_APP_ENV"
	EnvPort         = "NEXUS_APP_PORT"
	EnvDBDSN        = "NEXUS_DB_DSN"
	EnvDBDriver     = "NEXUS_DB_DRIVER"
	EnvDBHost       = "NEXUS_DB_HOST"
	EnvDBUser       = "NEXUS_DB_USER"
	EnvDBName       = "NEXUS_DB_NAME"
	EnvRedisURL     = "NEXUS_REDIS_URL"
	EnvJWTSecret    = "NEXUS_JWT_SECRET"
	EnvJWTIssuer    = "NEXUS_JWT_ISSUER"
	EnvTaxRate      = "NEXUS_CHECKOUT_TAX_RATE"
	EnvLockTimeout  = "NEXUS_CHECKOUT_LOCK_TIMEOUT"
	EnvKafkaBrokers = "NEXUS_KAFKA_BROKERS"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Checkout     CheckoutConfig
	Cron         CronConfig
	Outbox       OutboxConfig
	Kafka        KafkaConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"NEXUS_APP_ENV" required:"true"`
	Port         string `envconfig:"NEXUS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"NEXUS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NEXUS_LOG_WARN_STACK" default:"false"`

	CORSOrigins     []string      `envconfig:"NEXUS_CORS_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `envconfig:"NEXUS_APP_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"NEXUS_DB_DSN"`
	Driver string `envconfig:"NEXUS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"NEXUS_DB_HOST"`
	Port     int    `envconfig:"NEXUS_DB_PORT" default:"5432"`
	User     string `envconfig:"NEXUS_DB_USER"`
	Password string `envconfig:"NEXUS_DB_PASSWORD"`
	Name     string `envconfig:"NEXUS_DB_NAME"`
	SSLMode  string `envconfig:"NEXUS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NEXUS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NEXUS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NEXUS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NEXUS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL            string        `envconfig:"NEXUS_REDIS_URL"`
	Address        string        `envconfig:"NEXUS_REDIS_ADDR" default:"localhost:6379"`
	Password       string        `envconfig:"NEXUS_REDIS_PASSWORD"`
	DB             int           `envconfig:"NEXUS_REDIS_DB" default:"0"`
	PoolSize       int           `envconfig:"NEXUS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns   int           `envconfig:"NEXUS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout    time.Duration `envconfig:"NEXUS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"NEXUS_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout   time.Duration `envconfig:"NEXUS_REDIS_WRITE_TIMEOUT" default:"3s"`
	IdempotencyTTL time.Duration `envconfig:"NEXUS_REDIS_IDEMPOTENCY_TTL" default:"24h"`
}

type JWTConfig struct {
	Secret string `envconfig:"NEXUS_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"NEXUS_JWT_ISSUER" default:"nexus-commerce"`

	ExpirationMinutes int `envconfig:"NEXUS_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CheckoutConfig struct {
	TaxRate             string        `envconfig:"NEXUS_CHECKOUT_TAX_RATE" default:"0.10"`
	LockTimeout         time.Duration `envconfig:"NEXUS_CHECKOUT_LOCK_TIMEOUT" default:"5s"`
	OrderNumberAttempts int           `envconfig:"NEXUS_CHECKOUT_ORDER_NUMBER_ATTEMPTS" default:"5"`
	DefaultCurrency     string        `envconfig:"NEXUS_CHECKOUT_CURRENCY" default:"USD"`
}

// TaxRateDecimal returns the parsed flat tax rate.
func (c CheckoutConfig) TaxRateDecimal() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil {
		return decimal.Zero
	}
	return rate
}

func (c CheckoutConfig) validate() error {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil {
		return fmt.Errorf("%s: %w", EnvTaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be within [0, 1)", EnvTaxRate)
	}
	if c.LockTimeout < 0 {
		return fmt.Errorf("%s must be non-negative", EnvLockTimeout)
	}
	return nil
}

type CronConfig struct {
	Interval        time.Duration `envconfig:"NEXUS_CRON_INTERVAL" default:"15m"`
	PendingOrderTTL time.Duration `envconfig:"NEXUS_CRON_PENDING_ORDER_TTL" default:"24h"`
	LockTTL         time.Duration `envconfig:"NEXUS_CRON_LOCK_TTL" default:"10m"`
	BatchSize       int           `envconfig:"NEXUS_CRON_BATCH_SIZE" default:"100"`

	OutboxRetention       time.Duration `envconfig:"NEXUS_CRON_OUTBOX_RETENTION" default:"168h"`
	NotificationRetention time.Duration `envconfig:"NEXUS_CRON_NOTIFICATION_RETENTION" default:"720h"`
	LowStockAlertInterval time.Duration `envconfig:"NEXUS_CRON_LOW_STOCK_ALERT_INTERVAL" default:"24h"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"NEXUS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"NEXUS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"NEXUS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type KafkaConfig struct {
	Brokers       []string `envconfig:"NEXUS_KAFKA_BROKERS" default:"localhost:9092"`
	Topic         string   `envconfig:"NEXUS_KAFKA_TOPIC" default:"nexus.domain-events"`
	ConsumerGroup string   `envconfig:"NEXUS_KAFKA_CONSUMER_GROUP" default:"nexus-notifications"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"NEXUS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	missing := []string{}
	for _, env := range legacyDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
