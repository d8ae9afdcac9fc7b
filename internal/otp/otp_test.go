package otp

import (
	"context"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewStore(rdb), mr
}

func TestGenerate(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 100; i++ {
		code, err := Generate()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestSaveAndGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "alice@example.com", "123456"))

	code, err := store.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "123456", code)
}

func TestGetMissingCode(t *testing.T) {
	store, _ := newTestStore(t)

	code, err := store.Get(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestCodeExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "alice@example.com", "123456"))
	mr.FastForward(CodeTTL + time.Second)

	code, err := store.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestNewCodeOverwritesPrevious(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "alice@example.com", "111111"))
	require.NoError(t, store.Save(ctx, "alice@example.com", "222222"))

	code, err := store.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "222222", code)
}

func TestGetDoesNotConsumeCode(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "alice@example.com", "123456"))

	for i := 0; i < 3; i++ {
		code, err := store.Get(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, "123456", code)
	}
}
