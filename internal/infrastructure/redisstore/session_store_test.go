package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-account-service/internal/application"
)

func newStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSessionStore(rdb), mr
}

func TestSessionStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, store.Save(ctx, application.Session{
		UserID: "u1", SessionID: "s1", Email: "a@b.io", Username: "alice", Role: "USER", CreatedAt: created,
	}, time.Hour))
	assert.True(t, mr.Exists("user:session:u1"))

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "USER", got.Role)
	assert.True(t, created.Equal(got.CreatedAt))

	require.NoError(t, store.Delete(ctx, "u1"))
	got, err = store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStore_SaveReplacesAndExpires(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)

	require.NoError(t, store.Save(ctx, application.Session{UserID: "u1", SessionID: "old", Email: "x@y.io"}, time.Hour))
	require.NoError(t, store.Save(ctx, application.Session{UserID: "u1", SessionID: "new"}, time.Minute))

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.SessionID)
	assert.Empty(t, got.Email)

	mr.FastForward(2 * time.Minute)
	got, err = store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStore_BackendDown(t *testing.T) {
	store, mr := newStore(t)
	mr.Close()
	_, err := store.Get(context.Background(), "u1")
	assert.Error(t, err)
}
