package stubserver

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comptes-dev/comptes/internal/config"
	"github.com/comptes-dev/comptes/internal/logging"
	"github.com/comptes-dev/comptes/internal/model"
)

func configFor(store string) config.ServerConfig {
	return config.ServerConfig{Store: store}
}

func payload(solde string, typ model.AccountType) model.Payload {
	return model.Payload{
		Balance:      decimal.RequireFromString(solde),
		CreationDate: model.Date{Year: 2025, Month: time.March, Day: 2},
		Type:         typ,
	}
}

// exerciseStore runs the same contract against every implementation.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	accounts, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	first, err := s.Create(ctx, payload("100", model.AccountTypeChecking))
	require.NoError(t, err)
	assert.False(t, first.ID.IsZero())

	second, err := s.Create(ctx, payload("25.5", model.AccountTypeSavings))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	updated, err := s.Update(ctx, first.ID, payload("150", model.AccountTypeSavings))
	require.NoError(t, err)
	assert.Equal(t, first.ID, updated.ID)
	assert.True(t, decimal.RequireFromString("150").Equal(updated.Balance))

	accounts, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, first.ID, accounts[0].ID)
	assert.Equal(t, model.AccountTypeSavings, accounts[0].Type)
	assert.Equal(t, model.Date{Year: 2025, Month: time.March, Day: 2}, accounts[1].CreationDate)

	require.NoError(t, s.Delete(ctx, first.ID))
	assert.True(t, errors.Is(s.Delete(ctx, first.ID), ErrNotFound))

	_, err = s.Update(ctx, "999", payload("1", model.AccountTypeChecking))
	assert.ErrorIs(t, err, ErrNotFound)

	accounts, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, second.ID, accounts[0].ID)

	assert.NoError(t, s.Ping(ctx))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	exerciseStore(t, NewRedisStore(client))
}

func TestRedisStore_UpdateAfterDelete(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	s := NewRedisStore(client)
	acct, err := s.Create(ctx, payload("100", model.AccountTypeChecking))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, acct.ID))

	_, err = s.Update(ctx, acct.ID, payload("200", model.AccountTypeSavings))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, mr.HGet(redisAccountsKey, acct.ID.String()))

	accounts, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestNewRedisClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	_, err = NewRedisClient(context.Background(), "://bad")
	assert.Error(t, err)
}

func TestOpenStore_Redis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := config.ServerConfig{Store: StoreRedis, RedisURL: "redis://" + mr.Addr()}
	store, closeFn, err := OpenStore(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &RedisStore{}, store)
}

// TestPostgresStore needs a disposable database; it is skipped unless
// COMPTES_TEST_DATABASE_URL is set.
func TestPostgresStore(t *testing.T) {
	url := os.Getenv("COMPTES_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("COMPTES_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := NewPostgresPool(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	store := NewPostgresStore(pool)
	require.NoError(t, store.Migrate(ctx))
	_, err = pool.Exec(ctx, `TRUNCATE comptes RESTART IDENTITY`)
	require.NoError(t, err)

	exerciseStore(t, store)
}
