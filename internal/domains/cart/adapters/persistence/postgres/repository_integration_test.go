//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/foodcourt-server/internal/domains/cart/adapters/persistence/postgres"
	"github.com/Apurer/foodcourt-server/internal/domains/cart/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/cart/ports"
	"github.com/Apurer/foodcourt-server/internal/platform/postgres/pgtest"
)

func TestRepository_SaveGetClear(t *testing.T) {
	db := pgtest.Start(t)
	ctx := context.Background()
	repo := postgres.NewRepository(db)

	_, err := repo.Get(ctx, "guest-1")
	require.ErrorIs(t, err, ports.ErrNotFound)

	cart := domain.New("guest-1")
	require.NoError(t, cart.Add(1, 1, "Margherita", 2, decimal.RequireFromString("199.00"), time.Now()))
	require.NoError(t, cart.Add(2, 3, "Chicken Biryani", 1, decimal.RequireFromString("249.00"), time.Now()))

	saved, err := repo.Save(ctx, cart)
	require.NoError(t, err)
	require.Len(t, saved.Lines, 2)
	assert.Equal(t, int64(1), saved.Version)
	assert.True(t, saved.Subtotal().Equal(decimal.RequireFromString("647")))

	require.NoError(t, saved.Remove(saved.Lines[0].ID, time.Now()))
	saved, err = repo.Save(ctx, saved)
	require.NoError(t, err)
	require.Len(t, saved.Lines, 1)
	assert.Equal(t, "Chicken Biryani", saved.Lines[0].ItemName)

	require.NoError(t, repo.Clear(ctx, saved))
	got, err := repo.Get(ctx, "guest-1")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestRepository_OptimisticConflict(t *testing.T) {
	db := pgtest.Start(t)
	ctx := context.Background()
	repo := postgres.NewRepository(db)

	cart := domain.New("tok")
	require.NoError(t, cart.Add(1, 1, "Margherita", 1, decimal.NewFromInt(199), time.Now()))
	first, err := repo.Save(ctx, cart)
	require.NoError(t, err)

	_, err = repo.Save(ctx, first)
	require.NoError(t, err)

	_, err = repo.Save(ctx, first)
	assert.ErrorIs(t, err, ports.ErrConcurrentUpdate)

	fresh := domain.New("tok")
	_, err = repo.Save(ctx, fresh)
	assert.ErrorIs(t, err, ports.ErrConcurrentUpdate)
}
