//go:build integration

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/pkg/testutil/containers"
)

func TestRedisRevocationList(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	list := NewRedisRevocationList(rc.Client)
	ctx := context.Background()

	revoked, err := list.IsRevoked(ctx, "unknown-jti")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	t.Run("entries expire with the token", func(t *testing.T) {
		require.NoError(t, list.Revoke(ctx, "jti-2", 100*time.Millisecond))
		time.Sleep(300 * time.Millisecond)
		revoked, err := list.IsRevoked(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}
