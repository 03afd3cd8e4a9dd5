package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Cron          CronConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Outbox        OutboxConfig
	Notifications NotificationsConfig
	Orders        OrdersConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CENTRELABS_APP_ENV" required:"true"`
	Port         string `envconfig:"CENTRELABS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CENTRELABS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CENTRELABS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CENTRELABS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CENTRELABS_DB_DSN"`
	Driver string `envconfig:"CENTRELABS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"CENTRELABS_DB_HOST"`
	Port     int    `envconfig:"CENTRELABS_DB_PORT" default:"5432"`
	User     string `envconfig:"CENTRELABS_DB_USER"`
	Password string `envconfig:"CENTRELABS_DB_PASSWORD"`
	Name     string `envconfig:"CENTRELABS_DB_NAME"`
	SSLMode  string `envconfig:"CENTRELABS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CENTRELABS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CENTRELABS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CENTRELABS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CENTRELABS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrateDev bool `envconfig:"CENTRELABS_DB_AUTO_MIGRATE_DEV" default:"false"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("database DSN or host/user/name settings are required")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"CENTRELABS_REDIS_URL"`
	Address      string        `envconfig:"CENTRELABS_REDIS_ADDR"`
	Password     string        `envconfig:"CENTRELABS_REDIS_PASSWORD"`
	DB           int           `envconfig:"CENTRELABS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CENTRELABS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CENTRELABS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CENTRELABS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CENTRELABS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CENTRELABS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CENTRELABS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CENTRELABS_JWT_ISSUER" default:"centrelabs-backoffice"`
	ExpirationMinutes int    `envconfig:"CENTRELABS_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type CronConfig struct {
	Interval time.Duration `envconfig:"CENTRELABS_CRON_INTERVAL" default:"24h"`
	LockKey  string        `envconfig:"CENTRELABS_CRON_LOCK_KEY" default:"cron:daily"`
	LockTTL  time.Duration `envconfig:"CENTRELABS_CRON_LOCK_TTL" default:"23h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CENTRELABS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"CENTRELABS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"CENTRELABS_PUBSUB_ORDERS_TOPIC" default:"order-events"`
	NotificationsTopic string `envconfig:"CENTRELABS_PUBSUB_NOTIFICATIONS_TOPIC" default:"notification-events"`
	ErpSyncTopic       string `envconfig:"CENTRELABS_PUBSUB_ERP_SYNC_TOPIC" default:"erp-sync"`

	NotificationsSubscription string `envconfig:"CENTRELABS_PUBSUB_NOTIFICATIONS_SUBSCRIPTION" default:"order-events-notifications"`
	AnalyticsSubscription     string `envconfig:"CENTRELABS_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"order-events-analytics"`
}

type BigQueryConfig struct {
	Dataset      string `envconfig:"CENTRELABS_BIGQUERY_DATASET" default:"analytics"`
	RevenueTable string `envconfig:"CENTRELABS_BIGQUERY_REVENUE_TABLE" default:"order_revenue"`
}

type OutboxConfig struct {
	PollInterval time.Duration `envconfig:"CENTRELABS_OUTBOX_POLL_INTERVAL" default:"5s"`
	BatchSize    int           `envconfig:"CENTRELABS_OUTBOX_BATCH_SIZE" default:"100"`
	MaxAttempts  int           `envconfig:"CENTRELABS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type NotificationsConfig struct {
	FromAddress          string `envconfig:"CENTRELABS_NOTIFY_FROM" default:"orders@centrelabs.test"`
	ShippingManagerEmail string `envconfig:"CENTRELABS_NOTIFY_SHIPPING_MANAGER"`
}

type OrdersConfig struct {
	NumberPrefix string `envconfig:"CENTRELABS_ORDER_NUMBER_PREFIX" default:"CL"`
}
