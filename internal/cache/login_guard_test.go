package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLoginGuard_BlocksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	g := NewMemoryLoginGuard(3, time.Minute)
	g.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		require.NoError(t, g.RecordFailure(ctx, "Admin"))
		blocked, err := g.Blocked(ctx, "admin")
		require.NoError(t, err)
		assert.False(t, blocked)
	}

	require.NoError(t, g.RecordFailure(ctx, "admin"))
	blocked, err := g.Blocked(ctx, "ADMIN")
	require.NoError(t, err)
	assert.True(t, blocked)

	now = now.Add(2 * time.Minute)
	blocked, err = g.Blocked(ctx, "admin")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestMemoryLoginGuard_Reset(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryLoginGuard(1, time.Hour)

	require.NoError(t, g.RecordFailure(ctx, "sara"))
	blocked, _ := g.Blocked(ctx, "sara")
	require.True(t, blocked)

	require.NoError(t, g.Reset(ctx, "sara"))
	blocked, _ = g.Blocked(ctx, "sara")
	assert.False(t, blocked)
}

func TestRedisLoginGuard(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, addr, "", 0)
	require.NoError(t, err)
	defer client.Close()

	user := "test-" + uuid.NewString()
	g := NewRedisLoginGuard(client, 2, time.Minute)
	defer g.Reset(ctx, user)

	require.NoError(t, g.RecordFailure(ctx, user))
	blocked, err := g.Blocked(ctx, user)
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, g.RecordFailure(ctx, user))
	blocked, err = g.Blocked(ctx, user)
	require.NoError(t, err)
	assert.True(t, blocked)
}
