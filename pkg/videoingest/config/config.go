package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldsight/video-ingest/pkg/videoingest"
	"github.com/fieldsight/video-ingest/pkg/videoingest/repo/memory"
	repopg "github.com/fieldsight/video-ingest/pkg/videoingest/repo/postgres"
	memorystorage "github.com/fieldsight/video-ingest/pkg/videoingest/storage/memory"
	s3storage "github.com/fieldsight/video-ingest/pkg/videoingest/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:             "8080",
		Environment:      "development",
		DatabaseType:     "memory",
		StorageType:      "memory",
		CapabilityTTL:    videoingest.DefaultCapabilityTTL,
		OperationTimeout: videoingest.DefaultOperationTimeout,
		JWTSecret:        "",
	}
}

// ServerConfig represents server configuration for the video ingest service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL   string
	DatabaseType  string // "memory", "postgres"
	RunMigrations bool

	// Storage configuration
	StorageType string // "memory", "s3"
	S3          s3storage.Config

	// Upload grant configuration
	CapabilityTTL time.Duration

	// Bound on each storage probe and database transaction
	OperationTimeout time.Duration

	// Token signing for the records endpoints
	JWTSecret string
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if c.StorageType != "memory" && c.StorageType != "s3" {
		return errors.New("storage_type must be 'memory' or 's3'")
	}
	if c.StorageType == "s3" && c.S3.Bucket == "" {
		return errors.New("s3 bucket is required when using s3 storage")
	}

	if c.CapabilityTTL <= 0 {
		return errors.New("capability_ttl must be positive")
	}
	if c.OperationTimeout <= 0 {
		return errors.New("operation_timeout must be positive")
	}

	return nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context) (videoingest.Service, videoingest.Repository, error) {
	repo, err := c.BuildRepository(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build repository: %w", err)
	}

	store, err := c.BuildBlobStore()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build blob store: %w", err)
	}

	svc, err := videoingest.New(
		videoingest.WithRepository(repo),
		videoingest.WithBlobStore(store),
		videoingest.WithCapabilityTTL(c.CapabilityTTL),
		videoingest.WithOperationTimeout(c.OperationTimeout),
	)
	if err != nil {
		return nil, nil, err
	}
	return svc, repo, nil
}

// BuildRepository creates a Repository based on the configuration, running
// schema migrations first when configured to.
func (c *ServerConfig) BuildRepository(ctx context.Context) (videoingest.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), nil
	case "postgres":
		if c.RunMigrations {
			if err := repopg.RunMigrations(ctx, c.DatabaseURL); err != nil {
				return nil, err
			}
		}
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("database ping failed: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// BuildBlobStore creates a BlobStore based on the configuration
func (c *ServerConfig) BuildBlobStore() (videoingest.BlobStore, error) {
	switch c.StorageType {
	case "memory":
		return memorystorage.New(), nil
	case "s3":
		return s3storage.New(c.S3)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}
}
