//go:build integration

package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govportal/pkg/testutil/containers"
)

type list interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func assertRevocationLifecycle(t *testing.T, l list) {
	t.Helper()
	ctx := context.Background()

	revoked, err := l.IsRevoked(ctx, "jti-live")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, l.Revoke(ctx, "jti-live", time.Hour))
	require.NoError(t, l.Revoke(ctx, "jti-live", time.Hour), "revoking twice is allowed")
	revoked, err = l.IsRevoked(ctx, "jti-live")
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, l.Revoke(ctx, "jti-short", time.Second))
	require.Eventually(t, func() bool {
		revoked, err := l.IsRevoked(ctx, "jti-short")
		return err == nil && !revoked
	}, 5*time.Second, 100*time.Millisecond)
}

func TestRedisListAgainstServer(t *testing.T) {
	if testing.Short() {
		t.Skip("integration")
	}
	r := containers.NewRedis(t)
	assertRevocationLifecycle(t, NewRedisList(r.Client))
}

func TestPostgresListAgainstServer(t *testing.T) {
	if testing.Short() {
		t.Skip("integration")
	}
	pg := containers.NewPostgres(t)
	assertRevocationLifecycle(t, NewPostgresList(pg.DB))

	var rows int
	require.NoError(t, pg.DB.QueryRow(`SELECT count(*) FROM token_revocations`).Scan(&rows))
	assert.Equal(t, 2, rows)
}
