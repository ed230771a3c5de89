// Package config provides configuration structures and validation for the back office.
// It handles environment-based configuration for the snapshot storage backends, the credit
// ledger, the HTTP gateway and the optional event sinks (Kafka, MongoDB).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Storage drivers understood by store.OpenBackend.
const (
	StorageDriverFS       = "fs"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
	StorageDriverS3       = "s3"
	StorageDriverMemory   = "memory"
)

// Config holds the complete application configuration. Sections for backends that are not
// selected (or sinks that are disabled) are loaded but not validated.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Storage     StorageConfig
	Postgres    PostgresConfig
	S3          S3Config
	MongoDB     MongoDBConfig
	Kafka       KafkaConfig
	Ledger      LedgerConfig
	WorkerPool  WorkerPoolConfig
	Metrics     MetricsConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// StorageConfig selects where entity snapshots are written.
type StorageConfig struct {
	Driver        string        // fs, sqlite, postgres, s3 or memory
	DataDir       string        // Directory for the fs driver
	SQLitePath    string        // Database file for the sqlite driver
	FlushInterval time.Duration // How often dirty collections are re-saved
	SeedDefaults  bool          // Seed empty collections with starter records
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Maximum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
}

// S3Config contains object storage configuration
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional custom endpoint (MinIO, localstack)
	Prefix          string // Key prefix for snapshot objects
	UsePathStyle    bool
	AccessKeyID     string // Optional static credentials
	SecretAccessKey string
}

// MongoDBConfig contains MongoDB configuration for the credit history mirror
type MongoDBConfig struct {
	Enabled         bool
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// KafkaConfig contains Kafka configuration for ledger event publishing
type KafkaConfig struct {
	Enabled           bool
	Brokers           string
	LedgerTopic       string
	NumPartitions     int           // Number of partitions for topics
	ReplicationFactor int           // Replication factor for topics
	MaxWait           time.Duration // Write timeout for the event producer
	MirrorGroup       string        // Consumer group replaying the ledger topic into MongoDB
	MinBytes          int
	MaxBytes          int
}

// LedgerConfig contains credit ledger settings
type LedgerConfig struct {
	InitialSystemBalance int64 // Seed balance when no system ledger is persisted
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers dispatching ledger events
}

// MetricsConfig contains Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// validate performs validation of the configuration values that matter for the
// selected storage driver and the enabled sinks.
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
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

	// Validate Storage config
	switch c.Storage.Driver {
	case StorageDriverFS:
		if c.Storage.DataDir == "" {
			validationErrors = append(validationErrors, "STORAGE_DATA_DIR is required for the fs driver")
		}
	case StorageDriverSQLite:
		if c.Storage.SQLitePath == "" {
			validationErrors = append(validationErrors, "STORAGE_SQLITE_PATH is required for the sqlite driver")
		}
	case StorageDriverPostgres:
		validationErrors = append(validationErrors, c.Postgres.validate()...)
	case StorageDriverS3:
		if c.S3.Bucket == "" {
			validationErrors = append(validationErrors, "S3_BUCKET is required for the s3 driver")
		}
		if c.S3.Region == "" {
			validationErrors = append(validationErrors, "S3_REGION is required for the s3 driver")
		}
	case StorageDriverMemory:
	default:
		validationErrors = append(validationErrors, fmt.Sprintf("STORAGE_DRIVER %q is not supported", c.Storage.Driver))
	}
	if c.Storage.FlushInterval <= 0 {
		validationErrors = append(validationErrors, "STORAGE_FLUSH_INTERVAL must be greater than 0")
	}

	// Validate MongoDB config
	if c.MongoDB.Enabled {
		if c.MongoDB.URI == "" {
			validationErrors = append(validationErrors, "MONGO_URI is required")
		}
		if c.MongoDB.Database == "" {
			validationErrors = append(validationErrors, "MONGO_DATABASE is required")
		}
		if c.MongoDB.Timeout <= 0 {
			validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
		}
		if c.MongoDB.MaxPoolSize <= 0 {
			validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
		}
	}

	// Validate Kafka config
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
		}
		if c.Kafka.LedgerTopic == "" {
			validationErrors = append(validationErrors, "KAFKA_LEDGER_TOPIC is required")
		}
	}

	if c.Ledger.InitialSystemBalance < 0 {
		validationErrors = append(validationErrors, "LEDGER_INITIAL_SYSTEM_BALANCE must not be negative")
	}

	// Validate WorkerPool config
	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		validationErrors = append(validationErrors, "METRICS_PATH must start with /")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}

func (p *PostgresConfig) validate() []string {
	var errs []string
	if p.URL == "" {
		errs = append(errs, "POSTGRES_URL is required")
	}
	if p.MaxConns <= 0 {
		errs = append(errs, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if p.MinConns <= 0 {
		errs = append(errs, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if p.ConnMaxLifetime <= 0 {
		errs = append(errs, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if p.ConnMaxIdleTime <= 0 {
		errs = append(errs, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}
	return errs
}
