package config_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatficdb/chatficdb/pkg/submission/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "memory", cfg.DatabaseType)
	assert.Equal(t, "memory", cfg.StorageType)
	assert.Equal(t, 64, cfg.QueueBuffer)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SERVER_SLUG", "myserver")
	t.Setenv("STORAGE_TYPE", "s3")
	t.Setenv("S3_BUCKET", "stories")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "myserver", cfg.ServerSlug)
	assert.Equal(t, "s3", cfg.StorageType)
	assert.Equal(t, "stories", cfg.S3Bucket)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.ServerConfig)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *config.ServerConfig) {},
		},
		{
			name:    "postgres needs a url",
			mutate:  func(c *config.ServerConfig) { c.DatabaseType = "postgres" },
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "unknown database type",
			mutate:  func(c *config.ServerConfig) { c.DatabaseType = "oracle" },
			wantErr: "unsupported database type",
		},
		{
			name:    "s3 needs a bucket",
			mutate:  func(c *config.ServerConfig) { c.StorageType = "s3" },
			wantErr: "S3_BUCKET is required",
		},
		{
			name:    "unknown storage type",
			mutate:  func(c *config.ServerConfig) { c.StorageType = "tape" },
			wantErr: "unsupported storage type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.ServerConfig{DatabaseType: "memory", StorageType: "memory"}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestBuildServiceInMemory(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	svc, worker, err := cfg.BuildService(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, svc)
	require.NotNil(t, worker)
	assert.NoError(t, worker.Close(context.Background()))
}
