package cache

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-portal-api/pkg/config"
)

func TestNewRedisPings(t *testing.T) {
	srv := miniredis.RunT(t)

	port, err := strconv.Atoi(srv.Port())
	require.NoError(t, err)

	client, err := NewRedis(context.Background(), config.RedisConfig{Host: srv.Host(), Port: port})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	srv.CheckGet(t, "k", "v")
}

func TestNewRedisUnreachable(t *testing.T) {
	_, err := NewRedis(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
}

func TestKeyAndPattern(t *testing.T) {
	assert.Equal(t, "report:dist:class-1:sub-1:_", Key("report", "dist", "class-1", "sub-1", ""))
	assert.Equal(t, "report:class-1:*", Pattern("report", "class-1"))
}
