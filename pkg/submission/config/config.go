// Package config loads server configuration from the environment and
// assembles the submission service from it.
package config

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/chatficdb/chatficdb/pkg/chatfic/sentiment"
	"github.com/chatficdb/chatficdb/pkg/submission"
	"github.com/chatficdb/chatficdb/pkg/submission/queue"
	repomemory "github.com/chatficdb/chatficdb/pkg/submission/repo/memory"
	repopostgres "github.com/chatficdb/chatficdb/pkg/submission/repo/postgres"
	storememory "github.com/chatficdb/chatficdb/pkg/submission/storage/memory"
	stores3 "github.com/chatficdb/chatficdb/pkg/submission/storage/s3"
)

// ServerConfig holds the runtime configuration for the submission server.
type ServerConfig struct {
	Port        int    `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	ServerSlug  string `env:"SERVER_SLUG" env-default:"chatficdb"`

	DatabaseType  string `env:"DATABASE_TYPE" env-default:"memory"`
	DatabaseURL   string `env:"DATABASE_URL" env-default:""`
	RunMigrations bool   `env:"RUN_MIGRATIONS" env-default:"false"`

	StorageType string `env:"STORAGE_TYPE" env-default:"memory"`

	S3Region          string `env:"S3_REGION" env-default:"us-east-1"`
	S3Bucket          string `env:"S3_BUCKET" env-default:""`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID" env-default:""`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY" env-default:""`
	S3Endpoint        string `env:"S3_ENDPOINT" env-default:""`
	S3UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`

	QueueBuffer int `env:"QUEUE_BUFFER" env-default:"64"`
}

// Load reads the configuration from environment variables.
func Load() (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c *ServerConfig) Validate() error {
	switch c.DatabaseType {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATABASE_TYPE is postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}

	switch c.StorageType {
	case "memory":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_TYPE is s3")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}
	return nil
}

// BuildService wires the repository, object store, queue worker and
// annotator into a submission service.
func (c *ServerConfig) BuildService(ctx context.Context) (submission.Service, *queue.Worker, error) {
	repo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, nil, err
	}

	store, err := c.buildObjectStore()
	if err != nil {
		return nil, nil, err
	}

	annotator, err := sentiment.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build annotator: %w", err)
	}

	worker := queue.New(slog.Default(), c.QueueBuffer)

	svc, err := submission.New(
		submission.WithRepository(repo),
		submission.WithObjectStore(store),
		submission.WithQueue(worker),
		submission.WithAnnotator(annotator),
		submission.WithServerSlug(c.ServerSlug),
	)
	if err != nil {
		return nil, nil, err
	}
	return svc, worker, nil
}

func (c *ServerConfig) buildRepository(ctx context.Context) (submission.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return repomemory.New(), nil
	case "postgres":
		if c.RunMigrations {
			db, err := sql.Open("pgx", c.DatabaseURL)
			if err != nil {
				return nil, fmt.Errorf("failed to open database for migrations: %w", err)
			}
			if err := repopostgres.RunMigrations(ctx, db); err != nil {
				db.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			db.Close()
		}

		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		return repopostgres.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

func (c *ServerConfig) buildObjectStore() (submission.ObjectStore, error) {
	switch c.StorageType {
	case "memory":
		return storememory.New(), nil
	case "s3":
		store, err := stores3.New(stores3.Config{
			Region:          c.S3Region,
			Bucket:          c.S3Bucket,
			AccessKeyID:     c.S3AccessKeyID,
			SecretAccessKey: c.S3SecretAccessKey,
			Endpoint:        c.S3Endpoint,
			UsePathStyle:    c.S3UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build s3 store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}
}
