// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

//go:build integration

package sessionstore_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/wabbit/wabbit/internal/auth"
	"github.com/wabbit/wabbit/internal/sessionstore"
)

func startRedis(t *testing.T) *sessionstore.Redis {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	store, err := sessionstore.DialRedis(ctx, sessionstore.RedisConfig{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedis_Integration(t *testing.T) {
	store := startRedis(t)
	ctx := context.Background()

	t.Run("set get delete", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "sess:a", "7", 0))

		got, err := store.Get(ctx, "sess:a")
		require.NoError(t, err)
		assert.Equal(t, "7", got)

		require.NoError(t, store.Delete(ctx, "sess:a"))
		_, err = store.Get(ctx, "sess:a")
		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, store.Delete(ctx, "sess:a"))
	})

	t.Run("ttl expires key", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "forget-password:x", "7", time.Second))
		assert.Eventually(t, func() bool {
			_, err := store.Get(ctx, "forget-password:x")
			return err != nil
		}, 5*time.Second, 100*time.Millisecond)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}

func TestDialRedis_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := sessionstore.DialRedis(ctx, sessionstore.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
