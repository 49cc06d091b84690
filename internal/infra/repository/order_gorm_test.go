package repository

import (
	"context"
	"testing"

	"stockengine/internal/domain/model"
	repo "stockengine/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderCreate_DuplicateIdempotencyKey(t *testing.T) {
	gdb := newTestDB(t)
	orders := NewOrderGormRepository(gdb)
	ctx := context.Background()

	o := model.Order{UserID: 1, Status: model.OrderStatusPending, TotalAmount: 300, IdempotencyKey: "k-1"}
	id, err := orders.Create(ctx, o)
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = orders.Create(ctx, o)
	assert.ErrorIs(t, err, repo.ErrDuplicate)

	//別ユーザーなら同じキーでもよい
	o.UserID = 2
	_, err = orders.Create(ctx, o)
	assert.NoError(t, err)

	found, ok, err := orders.FindByIdempotencyKey(ctx, 1, "k-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, found.ID)
}

func TestOrderUpdateStatusIfCurrent(t *testing.T) {
	gdb := newTestDB(t)
	orders := NewOrderGormRepository(gdb)
	ctx := context.Background()

	id, err := orders.Create(ctx, model.Order{UserID: 1, Status: model.OrderStatusPending, TotalAmount: 100, IdempotencyKey: "a"})
	require.NoError(t, err)

	ok, err := orders.UpdateStatusIfCurrent(ctx, id, model.OrderStatusPending, model.OrderStatusCancelled)
	require.NoError(t, err)
	assert.True(t, ok)

	//2回目は前提が崩れているので更新されない
	ok, err = orders.UpdateStatusIfCurrent(ctx, id, model.OrderStatusPending, model.OrderStatusCancelled)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderMarkStockProcessed_Once(t *testing.T) {
	gdb := newTestDB(t)
	orders := NewOrderGormRepository(gdb)
	ctx := context.Background()

	id, err := orders.Create(ctx, model.Order{UserID: 1, Status: model.OrderStatusPending, TotalAmount: 100, IdempotencyKey: "a"})
	require.NoError(t, err)

	ok, err := orders.MarkStockProcessed(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = orders.MarkStockProcessed(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderSumDeliveredTotal(t *testing.T) {
	gdb := newTestDB(t)
	orders := NewOrderGormRepository(gdb)
	ctx := context.Background()

	for i, o := range []model.Order{
		{UserID: 7, Status: model.OrderStatusDelivered, TotalAmount: 500},
		{UserID: 7, Status: model.OrderStatusDelivered, TotalAmount: 9600},
		{UserID: 7, Status: model.OrderStatusShipped, TotalAmount: 1000},
		{UserID: 8, Status: model.OrderStatusDelivered, TotalAmount: 50000},
	} {
		o.IdempotencyKey = string(rune('a' + i))
		_, err := orders.Create(ctx, o)
		require.NoError(t, err)
	}

	sum, err := orders.SumDeliveredTotal(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(10100), sum)

	none, err := orders.SumDeliveredTotal(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(0), none)
}

func TestOrderDelete_NotFound(t *testing.T) {
	gdb := newTestDB(t)
	err := NewOrderGormRepository(gdb).Delete(context.Background(), 42)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestLoyaltyUpsert_Overwrites(t *testing.T) {
	gdb := newTestDB(t)
	l := NewLoyaltyGormRepository(gdb)
	ctx := context.Background()

	_, err := l.Find(ctx, 7)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	require.NoError(t, l.Upsert(ctx, model.CustomerLoyalty{CustomerID: 7, TotalSpent: 10100, IsVIP: true}))
	require.NoError(t, l.Upsert(ctx, model.CustomerLoyalty{CustomerID: 7, TotalSpent: 500, IsVIP: false}))

	got, err := l.Find(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.TotalSpent)
	assert.False(t, got.IsVIP)
}
