package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// envConfig is the flat environment surface read by cleanenv.
//
//	PORT               - listen port (default "8080")
//	ENVIRONMENT        - runtime environment (default "development")
//	DATABASE_URL       - "memory" or a postgres:// connection string
//	RUN_MIGRATIONS     - apply embedded schema migrations on startup
//	STORAGE_TYPE       - "memory" or "s3"
//	CAPABILITY_TTL     - upload grant lifetime (default "15m")
//	OPERATION_TIMEOUT  - bound on storage probes and db transactions (default "30s")
//	JWT_SECRET         - HMAC signing key for record-endpoint tokens
//	AWS_S3_*           - bucket, region, credentials, optional endpoint
type envConfig struct {
	Port             string        `env:"PORT" env-default:"8080"`
	Environment      string        `env:"ENVIRONMENT" env-default:"development"`
	DatabaseURL      string        `env:"DATABASE_URL" env-default:"memory"`
	RunMigrations    bool          `env:"RUN_MIGRATIONS" env-default:"true"`
	StorageType      string        `env:"STORAGE_TYPE" env-default:"memory"`
	CapabilityTTL    time.Duration `env:"CAPABILITY_TTL" env-default:"15m"`
	OperationTimeout time.Duration `env:"OPERATION_TIMEOUT" env-default:"30s"`
	JWTSecret        string        `env:"JWT_SECRET" env-default:""`

	S3Bucket          string `env:"AWS_S3_BUCKET" env-default:""`
	S3Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:""`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
	S3Endpoint        string `env:"AWS_S3_ENDPOINT" env-default:""`
	S3UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`
}

// WithEnv applies environment variable overrides.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env envConfig
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}

		c.Port = env.Port
		c.Environment = env.Environment
		c.RunMigrations = env.RunMigrations
		c.CapabilityTTL = env.CapabilityTTL
		c.OperationTimeout = env.OperationTimeout
		c.JWTSecret = env.JWTSecret

		switch {
		case env.DatabaseURL == "" || env.DatabaseURL == "memory":
			c.DatabaseType = "memory"
			c.DatabaseURL = ""
		case strings.HasPrefix(env.DatabaseURL, "postgres://"),
			strings.HasPrefix(env.DatabaseURL, "postgresql://"):
			c.DatabaseType = "postgres"
			c.DatabaseURL = env.DatabaseURL
		default:
			return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", env.DatabaseURL)
		}

		c.StorageType = env.StorageType
		if env.StorageType == "s3" {
			c.S3.Bucket = env.S3Bucket
			c.S3.Region = env.S3Region
			c.S3.AccessKeyID = env.S3AccessKeyID
			c.S3.SecretAccessKey = env.S3SecretAccessKey
			c.S3.Endpoint = env.S3Endpoint
			c.S3.UsePathStyle = env.S3UsePathStyle
		}

		return nil
	}
}
