package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zedemy/zedemy/backend/go-services/internal/config"
)

func TestConnectRedis(t *testing.T) {
	client, err := ConnectRedis(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client, "unconfigured redis yields no client")

	mr := miniredis.RunT(t)
	client, err = ConnectRedis(context.Background(), config.RedisConfig{Host: mr.Host(), Port: mr.Port()})
	require.NoError(t, err)
	require.NotNil(t, client)
	defer client.Close()
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())

	mr.Close()
	_, err = ConnectRedis(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: mr.Port()})
	assert.Error(t, err)
}
