package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	t.Setenv("MONGODB_DATABASE", "zedemy_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("JWT_SECRET", "testsecret123456789012345678901234")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://zedemy.vercel.app")
	t.Setenv("STORAGE_DRIVER", "MinIO")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "mongodb://localhost:27017/testdb", cfg.MongoDB.URI)
	require.Equal(t, "zedemy_test", cfg.MongoDB.Database)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
	require.Equal(t, []string{"http://localhost:3000", "https://zedemy.vercel.app"}, cfg.Server.CORSOrigins)
	require.Equal(t, "minio", cfg.Storage.Driver)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("REDIS_HOST", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "", cfg.Redis.Addr())
	require.Equal(t, 60*time.Minute, cfg.JWT.AccessTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTokenTTL)
	require.Equal(t, time.Hour, cfg.Storage.PresignTTL)
	require.Equal(t, 5, cfg.Mail.MaxAttempts)
	require.Equal(t, 500*time.Millisecond, cfg.Mail.RetryBase)
	require.Equal(t, 100, cfg.Posts.CategoryPageSize)
	require.Equal(t, "https://accounts.google.com", cfg.Google.Issuer)
}
