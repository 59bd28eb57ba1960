// Package config provides configuration structures and validation for the
// dashboard service and the scan archiver. Values are layered: defaults, then
// a .env file, then environment variables.
package config

import (
	"errors"
	"strings"
	"time"
)

// Storage drivers selectable with STORAGE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverS3       = "s3"
	DriverMemory   = "memory"
)

// Config holds the complete application configuration. Only the sections the
// selected storage driver and features need are validated.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Storage     StorageConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	S3          S3Config
	Kafka       KafkaConfig
	WorkerPool  WorkerPoolConfig
	Render      RenderConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
	// PublicBaseURL prefixes the per-entry page URL encoded for page kinds.
	PublicBaseURL string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	SessionCookie   string        // Cookie holding the dashboard session id
	SessionTTL      time.Duration // Idle dashboard sessions are dropped after this
}

// StorageConfig selects the durable mirror of the entry list
type StorageConfig struct {
	Driver     string
	Key        string // Well-known key the serialized list lives under
	SQLitePath string
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI               string
	Database          string
	Timeout           time.Duration
	MaxPoolSize       uint64
	MinPoolSize       uint64
	MaxConnIdleTime   time.Duration
	StoreCollection   string
	ArchiveCollection string
}

// S3Config contains object storage configuration. Endpoint is optional and
// points the client at an S3-compatible server such as MinIO.
type S3Config struct {
	Region       string
	Bucket       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Prefix       string
	UsePathStyle bool
}

// KafkaConfig contains configuration of the scan event stream
type KafkaConfig struct {
	Enabled           bool
	Brokers           string
	ScanTopic         string
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int
}

// RenderConfig bounds generated code images
type RenderConfig struct {
	DefaultSize int // Pixels per side when the request names none
	MaxSize     int
}

// validate checks the sections the dashboard service always needs plus the
// ones its storage driver and scan stream settings select.
func (c *Config) validate() error {
	var validationErrors []string

	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}
	if c.Server.SessionCookie == "" {
		validationErrors = append(validationErrors, "SERVER_SESSION_COOKIE is required")
	}
	if c.Server.SessionTTL <= 0 {
		validationErrors = append(validationErrors, "SERVER_SESSION_TTL must be greater than 0")
	}

	if c.Application.PublicBaseURL == "" {
		validationErrors = append(validationErrors, "APP_PUBLIC_BASE_URL is required")
	}

	if c.Storage.Key == "" {
		validationErrors = append(validationErrors, "STORAGE_KEY is required")
	}
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			validationErrors = append(validationErrors, "STORAGE_SQLITE_PATH is required")
		}
	case DriverPostgres:
		validationErrors = append(validationErrors, c.Postgres.problems()...)
	case DriverMongo:
		validationErrors = append(validationErrors, c.MongoDB.problems()...)
		if c.MongoDB.StoreCollection == "" {
			validationErrors = append(validationErrors, "MONGO_STORE_COLLECTION is required")
		}
	case DriverS3:
		validationErrors = append(validationErrors, c.S3.problems()...)
	case DriverMemory:
	default:
		validationErrors = append(validationErrors, "STORAGE_DRIVER must be one of sqlite, postgres, mongo, s3, memory")
	}

	if c.Kafka.Enabled {
		validationErrors = append(validationErrors, c.Kafka.problems()...)
		if c.WorkerPool.Size <= 0 {
			validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
		}
	}

	if c.Render.DefaultSize <= 0 {
		validationErrors = append(validationErrors, "RENDER_DEFAULT_SIZE must be greater than 0")
	}
	if c.Render.MaxSize < c.Render.DefaultSize {
		validationErrors = append(validationErrors, "RENDER_MAX_SIZE must be at least RENDER_DEFAULT_SIZE")
	}

	return joinProblems(validationErrors)
}

// ValidateArchiver checks the settings the scan archiver needs regardless of
// the dashboard's storage driver: the Kafka stream and the MongoDB archive.
func (c *Config) ValidateArchiver() error {
	var validationErrors []string
	validationErrors = append(validationErrors, c.Kafka.problems()...)
	validationErrors = append(validationErrors, c.MongoDB.problems()...)
	if c.MongoDB.ArchiveCollection == "" {
		validationErrors = append(validationErrors, "MONGO_ARCHIVE_COLLECTION is required")
	}
	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}
	return joinProblems(validationErrors)
}

func (c PostgresConfig) problems() []string {
	var p []string
	if c.URL == "" {
		p = append(p, "POSTGRES_URL is required")
	}
	if c.MaxConns <= 0 {
		p = append(p, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.MinConns <= 0 {
		p = append(p, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.ConnMaxLifetime <= 0 {
		p = append(p, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.ConnMaxIdleTime <= 0 {
		p = append(p, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}
	if c.MigrationsPath == "" {
		p = append(p, "POSTGRES_MIGRATIONS_PATH is required")
	}
	return p
}

func (c MongoDBConfig) problems() []string {
	var p []string
	if c.URI == "" {
		p = append(p, "MONGO_URI is required")
	}
	if c.Database == "" {
		p = append(p, "MONGO_DATABASE is required")
	}
	if c.Timeout <= 0 {
		p = append(p, "MONGO_TIMEOUT must be greater than 0")
	}
	if c.MaxPoolSize <= 0 {
		p = append(p, "MONGO_MAX_POOL_SIZE must be greater than 0")
	}
	if c.MaxConnIdleTime <= 0 {
		p = append(p, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
	}
	return p
}

func (c S3Config) problems() []string {
	var p []string
	if c.Region == "" {
		p = append(p, "S3_REGION is required")
	}
	if c.Bucket == "" {
		p = append(p, "S3_BUCKET is required")
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		p = append(p, "S3_ACCESS_KEY and S3_SECRET_KEY must be set together")
	}
	return p
}

func (c KafkaConfig) problems() []string {
	var p []string
	if c.Brokers == "" {
		p = append(p, "KAFKA_BROKERS is required")
	}
	if c.ScanTopic == "" {
		p = append(p, "KAFKA_SCAN_TOPIC is required")
	}
	if c.ConsumerGroup == "" {
		p = append(p, "KAFKA_CONSUMER_GROUP is required")
	}
	if c.MinBytes <= 0 {
		p = append(p, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	}
	if c.MaxBytes <= 0 {
		p = append(p, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	}
	if c.MaxWait <= 0 {
		p = append(p, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}
	return p
}

func joinProblems(problems []string) error {
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, ", "))
	}
	return nil
}
