package config

import (
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/review-runner/pkg/logger"
	"github.com/pkg/errors"
)

var config *Config

// Config holds every configuration value of the service. Nothing else reads the
// environment directly.
type Config struct {
	AppEnv              string `env:"APP_ENV,default=dev"`
	AppName             string `env:"APP_NAME,default=review_runner"`
	AppBaseUrl          string `env:"APP_BASE_URL,default=http://localhost:8080"`
	AppDebugErrors      bool   `env:"APP_DEBUG_ERRORS,default=false"`
	AppMetricsAddr      string `env:"APP_METRICS_ADDR"`
	AppMetricsURI       string `env:"APP_METRICS_URI,default=/metrics"`
	SnowflakeNodeID     int64  `env:"SNOWFLAKE_NODE_ID,default=1"`
	BulkDispatchLimit   int    `env:"BULK_DISPATCH_LIMIT,default=8"`
	DefaultMonthlyQuota int    `env:"DEFAULT_MONTHLY_QUOTA,default=500"`

	HttpListenAddr         string `env:"HTTP_LISTEN_ADDR,default=:8080"`
	HttpServerReadTimeout  int    `env:"HTTP_SERVER_READ_TIMEOUT,default=10"`
	HttpServerWriteTimeout int    `env:"HTTP_SERVER_WRITE_TIMEOUT,default=10"`
	HttpRequestTimeout     int    `env:"HTTP_REQUEST_TIMEOUT,default=15"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`
	PostgresSSLMode       string `env:"POSTGRES_SSL_MODE,default=disable"`
	PostgresDebug         bool   `env:"POSTGRES_DEBUG,default=false"`
	MigrationsDir         string `env:"MIGRATIONS_DIR,default=migrations"`

	RedisAddr               string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE,default=0"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=rr:"`

	PromNamespace string `env:"PROM_NAMESPACE,default=review_runner"`

	LogLevel string `env:"LOG_LEVEL,default=info"`

	QueueName              string        `env:"QUEUE_NAME,default=review-requests"`
	QueueConsumerGroup     string        `env:"QUEUE_CONSUMER_GROUP,default=dispatchers"`
	QueueConsumerName      string        `env:"QUEUE_CONSUMER_NAME,default=worker-1"`
	QueueMaxRetries        int           `env:"QUEUE_MAX_RETRIES,default=5"`
	QueueVisibilityTimeout time.Duration `env:"QUEUE_VISIBILITY_TIMEOUT,default=30s"`
	QueuePollInterval      time.Duration `env:"QUEUE_POLL_INTERVAL,default=1s"`
	QueueBatchSize         int64         `env:"QUEUE_BATCH_SIZE,default=10"`
	QueueMaxLen            int64         `env:"QUEUE_MAX_LEN,default=100000"`
	QueueEnableDLQ         bool          `env:"QUEUE_ENABLE_DLQ,default=true"`
	WorkerCount            int           `env:"WORKER_COUNT,default=4"`

	SendgridAPIKey   string `env:"SENDGRID_API_KEY"`
	SendgridFrom     string `env:"SENDGRID_FROM_EMAIL"`
	SendgridFromName string `env:"SENDGRID_FROM_NAME,default=Review Runner"`
	SendgridBaseUrl  string `env:"SENDGRID_BASE_URL,default=https://api.sendgrid.com"`

	SmsPrimaryUrl   string `env:"SMS_PRIMARY_URL"`
	SmsSecondaryUrl string `env:"SMS_SECONDARY_URL"`
	SmsBackupUrl    string `env:"SMS_BACKUP_URL"`
	SmsSender       string `env:"SMS_SENDER,default=ReviewRunner"`

	GooglePlacesAPIKey  string `env:"GOOGLE_PLACES_API_KEY"`
	GooglePlacesBaseUrl string `env:"GOOGLE_PLACES_BASE_URL,default=https://places.googleapis.com"`

	WorkosAPIKey      string `env:"WORKOS_API_KEY"`
	WorkosClientID    string `env:"WORKOS_CLIENT_ID"`
	WorkosRedirectURI string `env:"WORKOS_REDIRECT_URI"`

	WebhookSecret string `env:"WEBHOOK_SECRET"`
	AdminUserIDs  string `env:"ADMIN_USER_IDS"`

	SessionTTL          time.Duration `env:"SESSION_TTL,default=168h"`
	SetupStatusCacheTTL time.Duration `env:"SETUP_STATUS_CACHE_TTL,default=5m"`
}

// AdminIDs splits the comma separated ADMIN_USER_IDS value.
func (c *Config) AdminIDs() []string {
	var out []string
	for _, id := range strings.Split(c.AdminUserIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	if path != "" {
		logger.Info("loading env from file", "path", path)
		if err := godotenv.Load(path); err != nil {
			return errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	if _, err := env.UnmarshalFromEnviron(c); err != nil {
		return errors.Wrap(err, "failed to map env variables to configuration")
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}

// Set replaces the loaded configuration.
func Set(c *Config) {
	config = c
}
