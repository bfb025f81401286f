package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lottos-app/lottos/internal/config"
)

func TestNewPoolUnreachableDatabaseReturnsError(t *testing.T) {
	old := retryDelay
	retryDelay = 0
	t.Cleanup(func() { retryDelay = old })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := config.Database{
		Host:     "127.0.0.1",
		Port:     "1",
		User:     "postgres",
		Password: "postgres",
		Name:     "lottos",
		SSLMode:  "disable",
	}

	pool, err := NewPool(ctx, cfg)

	require.Error(t, err, "a pool that never answered a ping must not be handed out")
	assert.Nil(t, pool)
}
