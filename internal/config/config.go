package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/photomarathon/pipeline/internal/logger"
	"github.com/photomarathon/pipeline/internal/validator"
)

type PostgresConfig struct {
	User               string        `validate:"required"`
	Password           string        `validate:"required"`
	Host               string        `validate:"required"`
	Database           string        `validate:"required"`
	MaxIdleConnections int           `validate:"required" mapstructure:"max_idle_connections"`
	MaxOpenConnections int           `validate:"required" mapstructure:"max_open_connections"`
	ConnectionTTL      time.Duration `validate:"required" mapstructure:"connection_ttl"`
	Port               int16         `validate:"required"`
}

type AzureConfig struct {
	StorageAccount *AzureStorageAccountConfig `mapstructure:"storage_account" validate:"required"`
	Dev            bool                       `mapstructure:"dev"`
}

type AzureStorageAccountConfig struct {
	Containers *AzureStorageAccountContainerConfig `mapstructure:"containers" validate:"required"`
	Queues     *AzureStorageAccountQueueConfig     `mapstructure:"queues"     validate:"required"`
	Name       string                              `mapstructure:"name"       validate:"required"`
	Key        string                              `mapstructure:"key"        validate:"required"`
}

type AzureStorageAccountContainerConfig struct {
	URL         string `mapstructure:"url"         validate:"required"`
	Submissions string `mapstructure:"submissions" validate:"required"`
}

type AzureStorageAccountQueueConfig struct {
	URL     string `mapstructure:"url"     validate:"required"`
	Uploads string `mapstructure:"uploads" validate:"required"`
	Events  string `mapstructure:"events"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"          validate:"required"`
	AccessKeyID     string `mapstructure:"access_key_id"     validate:"required"`
	SecretAccessKey string `mapstructure:"secret_access_key" validate:"required"`
	Bucket          string `mapstructure:"bucket"            validate:"required"`
	SSLEnabled      bool   `mapstructure:"ssl_enabled"`
}

const (
	BackendAzure = "azure"
	BackendS3    = "s3"

	EventsQueue = "queue"
	EventsRedis = "redis"
)

type ObjectStoreConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=azure s3"`
	// Originals are read over HTTP from here when set, e.g. a CDN in front of the bucket
	ReadBaseURL    string `mapstructure:"read_base_url" validate:"omitempty,url"`
	ReadMaxRetries int    `mapstructure:"read_max_retries"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address" validate:"required"`
	Password string `mapstructure:"password"`
	Stream   string `mapstructure:"stream"  validate:"required"`
	DB       int    `mapstructure:"db"`
}

type EventsConfig struct {
	Redis   *RedisConfig `mapstructure:"redis"   validate:"-"`
	Backend string       `mapstructure:"backend" validate:"required,oneof=queue redis"`
}

type WorkerConfig struct {
	Concurrency    int           `mapstructure:"concurrency"     validate:"gte=1"`
	BatchSize      int           `mapstructure:"batch_size"      validate:"gte=1,lte=32"`
	MessageTimeout time.Duration `mapstructure:"message_timeout" validate:"required"`
	PollInterval   time.Duration `mapstructure:"poll_interval"   validate:"required"`
	// deliveries before a message is dropped, zero never drops
	MaxDeliveries  int64         `mapstructure:"max_deliveries"  validate:"gte=0"`
}

type VariantsConfig struct {
	ThumbnailMaxPx int `mapstructure:"thumbnail_max_px" validate:"gte=16"`
	PreviewMaxPx   int `mapstructure:"preview_max_px"   validate:"gtefield=ThumbnailMaxPx"`
	JPEGQuality    int `mapstructure:"jpeg_quality"     validate:"gte=1,lte=100"`
}

type SlogConfig struct {
	Level int `mapstructure:"level"`
}

type GormLogConfig struct {
	Level        int  `mapstructure:"level"`
	TraceQueries bool `mapstructure:"trace_queries"`
}

type LoggingConfig struct {
	Gorm    GormLogConfig `mapstructure:"gorm"`
	App     SlogConfig    `mapstructure:"app"`
	UseOTLP bool          `mapstructure:"use_otlp"`
}

// See photopipeline.yaml for an example config
type Config struct {
	Postgres             *PostgresConfig    `mapstructure:"postgres"               validate:"required"`
	Logging              *LoggingConfig     `mapstructure:"logging"                validate:"required"`
	ObjectStore          *ObjectStoreConfig `mapstructure:"object_store"           validate:"required"`
	Azure                *AzureConfig       `mapstructure:"azure"                  validate:"-"`
	S3                   *S3Config          `mapstructure:"s3"                     validate:"-"`
	Events               *EventsConfig      `mapstructure:"events"                 validate:"required"`
	Worker               *WorkerConfig      `mapstructure:"worker"                 validate:"required"`
	Variants             *VariantsConfig    `mapstructure:"variants"               validate:"required"`
	ListenAddress        string             `mapstructure:"listen_address"         validate:"required"`
	GracefulShutdownSecs int64              `mapstructure:"graceful_shutdown_secs"`
}

const (
	AppLogLevel                string = "logging.app.level"
	AzureDev                   string = "azure.dev"
	AzureStorageAccountKey     string = "azure.storage_account.key"
	EnvPrefix                  string = "photopipeline"
	EventsBackend              string = "events.backend"
	EventsRedisPassword        string = "events.redis.password"
	UseOTLP                    string = "logging.use_otlp"
	GormLogLevel               string = "logging.gorm.level"
	GormTraceQueries           string = "logging.gorm.trace_queries"
	GracefulShutdownSecs       string = "graceful_shutdown_secs"
	ListenAddress              string = "listen_address"
	ObjectStoreBackend         string = "object_store.backend"
	ObjectStoreReadMaxRetries  string = "object_store.read_max_retries"
	PostgresDatabase           string = "postgres.database"
	PostgresHost               string = "postgres.host"
	PostgresPassword           string = "postgres.password"
	PostgresPort               string = "postgres.port"
	PostgresUser               string = "postgres.user"
	PostgresMaxIdleConnections string = "postgres.max_idle_connections"
	PostgresMaxOpenConnections string = "postgres.max_open_connections"
	PostgresConnectonTTL       string = "postgres.connection_ttl"
	S3AccessKeyID              string = "s3.access_key_id"
	S3SecretAccessKey          string = "s3.secret_access_key" // #nosec
	S3SSLEnabled               string = "s3.ssl_enabled"
	VariantsJPEGQuality        string = "variants.jpeg_quality"
	VariantsPreviewMaxPx       string = "variants.preview_max_px"
	VariantsThumbnailMaxPx     string = "variants.thumbnail_max_px"
	WorkerBatchSize            string = "worker.batch_size"
	WorkerConcurrency          string = "worker.concurrency"
	WorkerMessageTimeout       string = "worker.message_timeout"
	WorkerPollInterval         string = "worker.poll_interval"
	WorkerMaxDeliveries        string = "worker.max_deliveries"
)

// keys that usually only come from the environment
var secretKeys = []string{
	PostgresUser,
	PostgresPassword,
	AzureStorageAccountKey,
	S3AccessKeyID,
	S3SecretAccessKey,
	EventsRedisPassword,
}

var configReady = false
var config Config

func GetConfig() (*Config, error) {
	if configReady {
		logger.Logger.Debug("returning already-loaded config")
		return &config, nil
	}
	logger.Logger.Info("loading config")

	v := viper.New()

	v.SetConfigName("photopipeline")

	v.AddConfigPath("/etc/photopipeline/")
	v.AddConfigPath(".")

	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.AutomaticEnv()

	// workaround for https://github.com/spf13/viper/issues/761
	// bind env vars explicitly so they unmarshal into the nested struct
	for _, key := range secretKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	v.SetDefault(ListenAddress, "[::]:8080")
	v.SetDefault(PostgresHost, "localhost")
	v.SetDefault(PostgresPort, 5432)
	v.SetDefault(PostgresMaxIdleConnections, 2)
	v.SetDefault(PostgresMaxOpenConnections, 10)
	v.SetDefault(PostgresConnectonTTL, 10*time.Minute)
	v.SetDefault(AzureDev, false)
	v.SetDefault(GormLogLevel, int(slog.LevelInfo))
	v.SetDefault(GormTraceQueries, false)
	v.SetDefault(AppLogLevel, int(slog.LevelInfo))
	v.SetDefault(UseOTLP, false)
	v.SetDefault(GracefulShutdownSecs, 30)

	v.SetDefault(ObjectStoreBackend, BackendAzure)
	v.SetDefault(ObjectStoreReadMaxRetries, 3)
	v.SetDefault(S3SSLEnabled, true)
	v.SetDefault(EventsBackend, EventsQueue)

	v.SetDefault(WorkerConcurrency, 8)
	v.SetDefault(WorkerBatchSize, 10)
	v.SetDefault(WorkerMessageTimeout, 5*time.Minute)
	v.SetDefault(WorkerPollInterval, 30*time.Second)
	v.SetDefault(WorkerMaxDeliveries, 5)

	v.SetDefault(VariantsThumbnailMaxPx, 400)
	v.SetDefault(VariantsPreviewMaxPx, 1600)
	v.SetDefault(VariantsJPEGQuality, 80)

	err := v.ReadInConfig()
	if err != nil {
		// ignore config file not found to allow pure env config
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	err = v.Unmarshal(&config)
	if err != nil {
		configReady = false
		return nil, err
	}

	valid := validator.Create()
	err = valid.Validate(&config)
	if err != nil {
		configReady = false
		return nil, err
	}

	err = config.validateBackends(valid)
	if err != nil {
		configReady = false
		return nil, err
	}

	configReady = true
	return &config, nil
}

// the selected backends decide which optional sections must be present
func (c *Config) validateBackends(valid validator.CustomValidator) error {
	// azure, s3 and redis sections are only validated when a backend uses them
	needAzure := c.ObjectStore.Backend == BackendAzure || c.Events.Backend == EventsQueue
	if needAzure {
		if c.Azure == nil {
			return errors.New("azure config is required for the azure object store or queue events")
		}
		if err := valid.Validate(c.Azure); err != nil {
			return fmt.Errorf("azure: %w", err)
		}
	}

	if c.Events.Backend == EventsQueue && c.Azure.StorageAccount.Queues.Events == "" {
		return errors.New("azure.storage_account.queues.events is required for queue events")
	}

	if c.ObjectStore.Backend == BackendS3 {
		if c.S3 == nil {
			return errors.New("s3 config is required for the s3 object store")
		}
		if err := valid.Validate(c.S3); err != nil {
			return fmt.Errorf("s3: %w", err)
		}
	}

	if c.Events.Backend == EventsRedis {
		if c.Events.Redis == nil {
			return errors.New("events.redis config is required for redis events")
		}
		if err := valid.Validate(c.Events.Redis); err != nil {
			return fmt.Errorf("events.redis: %w", err)
		}
	}

	return nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s",
		url.QueryEscape(c.Postgres.User),
		url.QueryEscape(c.Postgres.Password),
		c.Postgres.Host, c.Postgres.Port,
		url.QueryEscape(c.Postgres.Database),
	)
}
