package revocation

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govportal/pkg/platform/sentinel"
)

func TestMemoryList(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	list := NewMemoryList(WithMemoryClock(func() time.Time { return now }))

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Hour))
	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	now = now.Add(time.Hour)
	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entry lapses with the token")

	err = list.Revoke(ctx, "jti-2", 0)
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)

	require.NoError(t, list.Revoke(ctx, "", time.Hour))
	revoked, err = list.IsRevoked(ctx, "")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisList(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	list := NewRedisList(client)
	ctx := context.Background()

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "jti-1", 10*time.Minute))
	assert.True(t, mr.Exists("trl:jti:jti-1"))
	assert.Equal(t, 10*time.Minute, mr.TTL("trl:jti:jti-1"))

	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(11 * time.Minute)
	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	assert.ErrorIs(t, list.Revoke(ctx, "jti-2", -time.Second), sentinel.ErrInvalidState)
}

func TestRedisListUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	list := NewRedisList(client)

	mr.SetError("ERR simulated outage")
	_, err := list.IsRevoked(context.Background(), "jti-1")
	assert.Error(t, err)
}

func TestPostgresList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	list := NewPostgresList(db, WithPostgresClock(func() time.Time { return now }))
	ctx := context.Background()

	t.Run("revoke upserts expiry", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO token_revocations")).
			WithArgs("jti-1", now.Add(time.Hour)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, list.Revoke(ctx, "jti-1", time.Hour))
	})

	t.Run("live entry is revoked", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT expires_at FROM token_revocations")).
			WithArgs("jti-1").
			WillReturnRows(sqlmock.NewRows([]string{"expires_at"}).AddRow(now.Add(time.Minute)))

		revoked, err := list.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("lapsed entry is not revoked", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT expires_at FROM token_revocations")).
			WithArgs("jti-1").
			WillReturnRows(sqlmock.NewRows([]string{"expires_at"}).AddRow(now.Add(-time.Minute)))

		revoked, err := list.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("unknown jti", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT expires_at FROM token_revocations")).
			WithArgs("jti-9").
			WillReturnRows(sqlmock.NewRows([]string{"expires_at"}))

		revoked, err := list.IsRevoked(ctx, "jti-9")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("driver error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT expires_at FROM token_revocations")).
			WithArgs("jti-1").
			WillReturnError(errors.New("connection reset"))

		_, err := list.IsRevoked(ctx, "jti-1")
		assert.Error(t, err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
